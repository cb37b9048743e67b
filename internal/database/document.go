package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gamestatus/gamestatus-bot/internal/models"
)

var (
	ErrUnsupportedVersion = errors.New("unsupported document version")
	ErrUnknownShape       = errors.New("unrecognized document shape")
)

// rawDocument covers every shape the state file has had: the versioned
// document and the legacy {intervals, lastMessages} layout.
type rawDocument struct {
	Version      *int                                  `json:"version"`
	Monitors     json.RawMessage                       `json:"monitors"`
	Intervals    map[string]map[string]json.RawMessage `json:"intervals"`
	LastMessages map[string]map[string]string          `json:"lastMessages"`
}

// EncodeDocument serializes doc at the current schema version.
func EncodeDocument(doc models.Document) ([]byte, error) {
	doc.Version = models.CurrentDocumentVersion
	if doc.Monitors == nil {
		doc.Monitors = make(map[string]map[string]models.DocumentEntry)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// DecodeDocument parses data, migrating legacy layouts to the current schema.
func DecodeDocument(data []byte) (models.Document, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Document{}, fmt.Errorf("parse document: %w", err)
	}

	if raw.Version != nil {
		if *raw.Version != models.CurrentDocumentVersion {
			return models.Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *raw.Version)
		}
		doc := models.NewDocument()
		if len(raw.Monitors) > 0 && !bytes.Equal(raw.Monitors, []byte("null")) {
			if err := json.Unmarshal(raw.Monitors, &doc.Monitors); err != nil {
				return models.Document{}, fmt.Errorf("parse monitors: %w", err)
			}
		}
		return prune(doc), nil
	}

	if raw.Intervals != nil || raw.LastMessages != nil {
		return migrateLegacy(raw)
	}

	return models.Document{}, ErrUnknownShape
}

// migrateLegacy converts the unversioned layout. Message ids for channels
// without a monitor are dropped.
func migrateLegacy(raw rawDocument) (models.Document, error) {
	doc := models.NewDocument()
	for guildID, channels := range raw.Intervals {
		for channelID, rawSpec := range channels {
			spec, err := decodeLegacySpec(rawSpec)
			if err != nil {
				return models.Document{}, fmt.Errorf("migrate %s/%s: %w", guildID, channelID, err)
			}
			if doc.Monitors[guildID] == nil {
				doc.Monitors[guildID] = make(map[string]models.DocumentEntry)
			}
			doc.Monitors[guildID][channelID] = models.DocumentEntry{
				Spec:          spec,
				LastMessageID: raw.LastMessages[guildID][channelID],
			}
		}
	}
	return doc, nil
}

// decodeLegacySpec accepts {"type","host","port"} or ["type", "host", port].
func decodeLegacySpec(data json.RawMessage) (models.MonitorSpec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return models.MonitorSpec{}, ErrUnknownShape
	}

	var fields []json.RawMessage
	switch trimmed[0] {
	case '{':
		var obj struct {
			Type string          `json:"type"`
			Host string          `json:"host"`
			Port json.RawMessage `json:"port"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return models.MonitorSpec{}, err
		}
		port, err := decodePort(obj.Port)
		if err != nil {
			return models.MonitorSpec{}, err
		}
		return models.MonitorSpec{ServerType: obj.Type, Host: obj.Host, Port: port}, nil
	case '[':
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return models.MonitorSpec{}, err
		}
	default:
		return models.MonitorSpec{}, ErrUnknownShape
	}

	if len(fields) != 3 {
		return models.MonitorSpec{}, fmt.Errorf("%w: positional spec has %d fields", ErrUnknownShape, len(fields))
	}
	var spec models.MonitorSpec
	if err := json.Unmarshal(fields[0], &spec.ServerType); err != nil {
		return models.MonitorSpec{}, err
	}
	if err := json.Unmarshal(fields[1], &spec.Host); err != nil {
		return models.MonitorSpec{}, err
	}
	port, err := decodePort(fields[2])
	if err != nil {
		return models.MonitorSpec{}, err
	}
	spec.Port = port
	return spec, nil
}

func decodePort(data json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("invalid port %s", string(data))
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return n, nil
}

// prune drops empty guild maps so a round trip is stable.
func prune(doc models.Document) models.Document {
	for guildID, channels := range doc.Monitors {
		if len(channels) == 0 {
			delete(doc.Monitors, guildID)
		}
	}
	return doc
}
