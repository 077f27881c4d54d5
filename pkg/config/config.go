// Package config decodes YAML architecture manifests into neural.MLP and
// agent.DDPG instances.
//
// The teacher's pkg/config (milosgajdos-go-neural/pkg/config) decodes a
// classifier network's layer/training/optimize YAML via gopkg.in/yaml.v1
// into a validated NetConfig. This keeps that Manifest-then-Parse shape and
// the same "fail on first bad field with a descriptive error" style, but
// targets gopkg.in/yaml.v3 (the teacher's v1 is long unmaintained; v3 is
// what the rest of the pack uses) and describes the two architectures
// spec.md's [MLP] and [DDPG] modules need instead of a classifier's
// input/hidden/output layer triple.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/milosgajdos/deepnet/agent"
	"github.com/milosgajdos/deepnet/neural"
	"github.com/milosgajdos/deepnet/pkg/activation"
	"github.com/milosgajdos/deepnet/pkg/rng"
)

// Manifest is the top-level YAML document: exactly one of MLP or DDPG must
// be set, selected by Kind.
type Manifest struct {
	Kind string      `yaml:"kind"`
	MLP  *MLPConfig  `yaml:"mlp,omitempty"`
	DDPG *DDPGConfig `yaml:"ddpg,omitempty"`
}

// MLPConfig describes a feed-forward network's architecture, batch size and
// training hyperparameters.
type MLPConfig struct {
	Input  int `yaml:"input"`
	Hidden struct {
		Sizes      []int  `yaml:"sizes"`
		Activation string `yaml:"activation"`
	} `yaml:"hidden"`
	Output struct {
		Size       int    `yaml:"size"`
		Activation string `yaml:"activation"`
	} `yaml:"output"`
	Batch    int `yaml:"batch"`
	Training struct {
		Optimizer    string  `yaml:"optimizer"`
		LearningRate float64 `yaml:"learningRate"`
		ClipNorm     float64 `yaml:"clipNorm,omitempty"`
	} `yaml:"training"`
}

// DDPGConfig describes a DDPG agent's state/action dimensions, exploration
// noise, actor/critic architectures and replay/training hyperparameters.
type DDPGConfig struct {
	StateSize  int       `yaml:"stateSize"`
	ActionSize int       `yaml:"actionSize"`
	Noise      []float64 `yaml:"noise,omitempty"`
	Actor      struct {
		Hidden []int `yaml:"hidden"`
	} `yaml:"actor"`
	Critic struct {
		Hidden []int `yaml:"hidden"`
	} `yaml:"critic"`
	MemorySize int     `yaml:"memorySize"`
	Batch      int     `yaml:"batch"`
	Gamma      float64 `yaml:"gamma"`
}

// Load reads and decodes a manifest file at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: could not open manifest: %w", err)
	}
	defer f.Close()

	var m Manifest
	if err := yaml.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("config: could not decode manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	switch m.Kind {
	case "mlp":
		if m.MLP == nil {
			return fmt.Errorf("config: kind mlp requires an mlp section")
		}
		if m.DDPG != nil {
			return fmt.Errorf("config: kind mlp must not have a ddpg section")
		}
	case "ddpg":
		if m.DDPG == nil {
			return fmt.Errorf("config: kind ddpg requires a ddpg section")
		}
		if m.MLP != nil {
			return fmt.Errorf("config: kind ddpg must not have an mlp section")
		}
	default:
		return fmt.Errorf("config: unsupported manifest kind %q", m.Kind)
	}
	return nil
}

// BuildMLP constructs the neural.MLP described by c, seeding its weights
// from src. It fails if c.Hidden.Activation or c.Output.Activation name an
// unknown activation function.
func (c *MLPConfig) BuildMLP(src *rng.Source) (*neural.MLP, error) {
	hiddenKind, ok := activation.ParseKind(c.Hidden.Activation)
	if !ok {
		return nil, fmt.Errorf("config: unknown hidden activation %q", c.Hidden.Activation)
	}
	outputKind, ok := activation.ParseKind(c.Output.Activation)
	if !ok {
		return nil, fmt.Errorf("config: unknown output activation %q", c.Output.Activation)
	}
	return neural.New(c.Input, c.Output.Size, len(c.Hidden.Sizes), c.Hidden.Sizes, hiddenKind, outputKind, c.Batch, src)
}

// BuildDDPG constructs the agent.DDPG described by c, seeding its networks
// from src.
func (c *DDPGConfig) BuildDDPG(src *rng.Source) (*agent.DDPG, error) {
	return agent.New(c.StateSize, c.ActionSize, c.Noise, c.Actor.Hidden, c.Critic.Hidden, c.MemorySize, c.Batch, src)
}
