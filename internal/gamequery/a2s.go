package gamequery

import (
	"time"

	"github.com/rumblefrog/go-a2s"
)

// a2sSource speaks the Steam A2S_INFO query protocol.
type a2sSource struct {
	client *a2s.Client
}

func dialA2S(addr string, timeout time.Duration) (infoSource, error) {
	client, err := a2s.NewClient(addr, a2s.TimeoutOption(timeout))
	if err != nil {
		return nil, err
	}
	return &a2sSource{client: client}, nil
}

func (s *a2sSource) Info() (serverInfo, error) {
	info, err := s.client.QueryInfo()
	if err != nil {
		return serverInfo{}, err
	}

	out := serverInfo{
		Name:       info.Name,
		Map:        info.Map,
		Folder:     info.Folder,
		Game:       info.Game,
		Version:    info.Version,
		Players:    int(info.Players),
		MaxPlayers: int(info.MaxPlayers),
		Bots:       int(info.Bots),
		Private:    info.Visibility,
	}
	if ext := info.ExtendedServerInfo; ext != nil {
		out.GamePort = int(ext.Port)
		out.Keywords = ext.Keywords
	}
	return out, nil
}

func (s *a2sSource) Close() error {
	return s.client.Close()
}
