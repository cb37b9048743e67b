package gamequery

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const ProtocolA2S = "a2s"

//go:embed games.yaml
var defaultCatalog []byte

type Game struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Protocol string   `yaml:"protocol"`
	Aliases  []string `yaml:"aliases"`
}

// Catalog maps server type ids and aliases to games. Lookups ignore case.
type Catalog struct {
	games []Game
	index map[string]Game
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file struct {
		Games []Game `yaml:"games"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse game catalog: %w", err)
	}

	c := &Catalog{index: make(map[string]Game)}
	for _, g := range file.Games {
		g.ID = normalizeType(g.ID)
		if g.ID == "" {
			return nil, fmt.Errorf("game catalog: entry %q has no id", g.Name)
		}
		if g.Protocol != ProtocolA2S {
			return nil, fmt.Errorf("game catalog: %s uses unsupported protocol %q", g.ID, g.Protocol)
		}
		for _, name := range append([]string{g.ID}, g.Aliases...) {
			name = normalizeType(name)
			if _, dup := c.index[name]; dup {
				return nil, fmt.Errorf("game catalog: duplicate id %q", name)
			}
			c.index[name] = g
		}
		c.games = append(c.games, g)
	}
	return c, nil
}

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Lookup(serverType string) (Game, bool) {
	g, ok := c.index[normalizeType(serverType)]
	return g, ok
}

func (c *Catalog) Games() []Game {
	return append([]Game(nil), c.games...)
}

func normalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
