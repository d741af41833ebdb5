package engagement

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

const defaultKey = "default"

//go:embed fallbacks.yaml
var embeddedCatalog []byte

// Catalog holds the static persona lines, keyed by scam type then phase.
type Catalog struct {
	Fallbacks map[string]map[Phase][]string `yaml:"fallbacks"`
	Hooks     []string                      `yaml:"hooks"`
	Generic   []string                      `yaml:"generic"`
}

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(embeddedCatalog)
	if err != nil {
		panic(fmt.Sprintf("engagement: embedded catalog is invalid: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog override from path.
// An empty path or a missing file yields the embedded catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalog(), nil
		}
		return nil, err
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a catalog. The default entry must cover every phase.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Hooks) == 0 {
		return nil, fmt.Errorf("catalog has no hooks")
	}
	if len(c.Generic) == 0 {
		return nil, fmt.Errorf("catalog has no generic lines")
	}
	defaults := c.Fallbacks[defaultKey]
	for _, p := range Phases {
		if len(defaults[p]) == 0 {
			return nil, fmt.Errorf("catalog default has no lines for phase %s", p)
		}
	}
	return &c, nil
}

// Fallback picks the line for scamType and phase, rotating by turn.
// Scam types or phases without lines use the default entry.
func (c *Catalog) Fallback(scamType models.ScamType, phase Phase, turn int) string {
	lines := c.Fallbacks[string(scamType)][phase]
	if len(lines) == 0 {
		lines = c.Fallbacks[defaultKey][phase]
	}
	if len(lines) == 0 {
		return c.GenericLine(turn)
	}
	return pick(lines, turn)
}

// Hook returns the suffix appended to replies that do not already invite an answer.
func (c *Catalog) Hook(turn int) string {
	return pick(c.Hooks, turn)
}

// GenericLine is the reply used when nothing is known about the conversation.
func (c *Catalog) GenericLine(turn int) string {
	return pick(c.Generic, turn)
}

func pick(lines []string, turn int) string {
	if len(lines) == 0 {
		return ""
	}
	if turn < 0 {
		turn = -turn
	}
	return lines[turn%len(lines)]
}
