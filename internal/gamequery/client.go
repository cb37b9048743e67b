// Package gamequery queries remote game servers for their current state.
package gamequery

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServerState is what a successful query returns. Raw carries the
// vendor-specific parts some games use instead of the common fields.
type ServerState struct {
	Name       string
	Map        string
	Connect    string
	Ping       time.Duration
	Password   bool
	NumPlayers int
	MaxPlayers int
	Bots       int
	Game       Game
	Raw        Raw
}

type Raw struct {
	Folder   string
	Game     string
	Version  string
	Keywords string
	Tags     []string
}

// serverInfo is the protocol-neutral answer of an info source.
type serverInfo struct {
	Name       string
	Map        string
	Folder     string
	Game       string
	Version    string
	Players    int
	MaxPlayers int
	Bots       int
	Private    bool
	GamePort   int
	Keywords   string
}

type infoSource interface {
	Info() (serverInfo, error)
	Close() error
}

type dialFunc func(addr string, timeout time.Duration) (infoSource, error)

type Client struct {
	catalog *Catalog
	timeout time.Duration
	dial    dialFunc
	log     zerolog.Logger
	now     func() time.Time
}

func NewClient(catalog *Catalog, timeout time.Duration, log zerolog.Logger) *Client {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		catalog: catalog,
		timeout: timeout,
		dial:    dialA2S,
		log:     log.With().Str("component", "gamequery").Logger(),
		now:     time.Now,
	}
}

func (c *Client) Catalog() *Catalog { return c.catalog }

// Query asks the server at host:port for its state. Errors match either
// ErrInvalidTarget or ErrUnreachable.
func (c *Client) Query(ctx context.Context, serverType, host string, port int) (*ServerState, error) {
	game, ok := c.catalog.Lookup(serverType)
	if !ok {
		return nil, invalidTarget("Invalid game: %s", strings.TrimSpace(serverType))
	}
	host = strings.TrimSpace(host)
	if host == "" || strings.ContainsAny(host, " /") {
		return nil, invalidTarget("Invalid address: %q", host)
	}
	if port < 1 || port > 65535 {
		return nil, invalidTarget("Invalid port: %d", port)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil || timeout <= 0 {
		if err == nil {
			err = context.DeadlineExceeded
		}
		return nil, unreachable(addr, err)
	}

	src, err := c.dial(addr, timeout)
	if err != nil {
		return nil, unreachable(addr, err)
	}
	defer src.Close()

	start := c.now()
	info, err := src.Info()
	if err != nil {
		return nil, unreachable(addr, err)
	}
	ping := c.now().Sub(start)

	connectPort := port
	if info.GamePort > 0 {
		connectPort = info.GamePort
	}

	st := &ServerState{
		Name:       info.Name,
		Map:        info.Map,
		Connect:    net.JoinHostPort(host, strconv.Itoa(connectPort)),
		Ping:       ping,
		Password:   info.Private,
		NumPlayers: info.Players,
		MaxPlayers: info.MaxPlayers,
		Bots:       info.Bots,
		Game:       game,
		Raw: Raw{
			Folder:   info.Folder,
			Game:     info.Game,
			Version:  info.Version,
			Keywords: info.Keywords,
			Tags:     splitTags(info.Keywords),
		},
	}
	c.log.Debug().Str("game", game.ID).Str("addr", addr).Dur("ping", ping).
		Int("players", st.NumPlayers).Msg("query succeeded")
	return st, nil
}

func splitTags(keywords string) []string {
	if keywords == "" {
		return nil
	}
	parts := strings.Split(keywords, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.TrimSpace(p))
	}
	return tags
}
