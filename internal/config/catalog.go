package config

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/vizier/internal/exercise"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/session"
)

//go:embed exercises.yaml
var catalogFS embed.FS

var (
	// ErrUnknownExercise is returned when the catalog has no such exercise.
	ErrUnknownExercise = errors.New("unknown exercise")
	// ErrUnknownConfiguration is returned when an exercise has no such configuration.
	ErrUnknownConfiguration = errors.New("unknown configuration")
)

// Catalog lists the launchable exercises.
type Catalog struct {
	Exercises map[string]Exercise `yaml:"exercises" validate:"required,min=1,dive"`
}

// Exercise is one catalog entry.
type Exercise struct {
	Plugin         string                   `yaml:"plugin" validate:"required,oneof=anaglyph recognition depth"`
	Title          string                   `yaml:"title"`
	Configurations map[string]Configuration `yaml:"configurations" validate:"required,min=1,dive"`
}

// Configuration is a named difficulty preset.
type Configuration struct {
	Session  SessionParams `yaml:"session"`
	Exercise yaml.Node     `yaml:"exercise" validate:"-"`
}

// SessionParams is the YAML form of model.SessionConfig.
type SessionParams struct {
	PrimaryParam     int           `yaml:"primary-param"`
	Step             int           `yaml:"step"`
	SuccessThreshold int           `yaml:"success-threshold" validate:"gte=1"`
	FailThreshold    int           `yaml:"fail-threshold" validate:"gte=1"`
	Count            int           `yaml:"count" validate:"gte=1"`
	Duration         time.Duration `yaml:"duration" validate:"gt=0"`
}

// Model converts the parameters for the session package.
func (p SessionParams) Model() model.SessionConfig {
	return model.SessionConfig{
		PrimaryParamInit: p.PrimaryParam,
		Step:             p.Step,
		SuccessThreshold: p.SuccessThreshold,
		FailThreshold:    p.FailThreshold,
		TrialLimit:       p.Count,
		Duration:         p.Duration,
	}
}

// Launch is a fully resolved exercise configuration.
type Launch struct {
	Exercise   string
	Title      string
	Plugin     string
	Difficulty string
	Session    model.SessionConfig
	Params     exercise.Params
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (Catalog, error) {
	data, err := catalogFS.ReadFile("exercises.yaml")
	if err != nil {
		return Catalog{}, fmt.Errorf("read embedded catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if err := ValidateStruct(c); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// LoadCatalog returns the embedded catalog with the exercises of the file at path
// layered on top. A missing file is not an error.
func LoadCatalog(path string) (Catalog, error) {
	base, err := DefaultCatalog()
	if err != nil {
		return Catalog{}, err
	}
	if path == "" {
		return base, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	user, err := ParseCatalog(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	for name, ex := range user.Exercises {
		base.Exercises[name] = ex
	}
	return base, nil
}

// Names returns the exercise names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c.Exercises))
	for name := range c.Exercises {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var difficultyOrder = map[string]int{"easy": 0, "medium": 1, "hard": 2}

// Labels returns the configuration labels of an exercise, easy to hard first.
func (e Exercise) Labels() []string {
	labels := make([]string, 0, len(e.Configurations))
	for label := range e.Configurations {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		oi, iok := difficultyOrder[labels[i]]
		oj, jok := difficultyOrder[labels[j]]
		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return labels[i] < labels[j]
		}
	})
	return labels
}

// Resolve decodes the named configuration into a Launch. An empty label selects
// "medium" when present, otherwise the first label.
func (c Catalog) Resolve(name, label string) (Launch, error) {
	ex, ok := c.Exercises[name]
	if !ok {
		return Launch{}, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
	}
	if label == "" {
		labels := ex.Labels()
		label = labels[0]
		if _, ok := ex.Configurations["medium"]; ok {
			label = "medium"
		}
	}
	conf, ok := ex.Configurations[label]
	if !ok {
		return Launch{}, fmt.Errorf("%w: %q for %s", ErrUnknownConfiguration, label, name)
	}
	sess := conf.Session.Model()
	if err := session.Validate(sess); err != nil {
		return Launch{}, fmt.Errorf("%s/%s: %w", name, label, err)
	}
	params, err := decodeParams(ex.Plugin, conf.Exercise)
	if err != nil {
		return Launch{}, fmt.Errorf("%s/%s: %w", name, label, err)
	}
	title := ex.Title
	if title == "" {
		title = name
	}
	return Launch{
		Exercise:   name,
		Title:      title,
		Plugin:     ex.Plugin,
		Difficulty: label,
		Session:    sess,
		Params:     params,
	}, nil
}

func decodeParams(plugin string, node yaml.Node) (exercise.Params, error) {
	p := exercise.Params{
		Anaglyph:    exercise.DefaultAnaglyphParams(),
		Recognition: exercise.DefaultRecognitionParams(),
		Depth:       exercise.DefaultDepthParams(),
	}
	var target interface{}
	switch plugin {
	case exercise.PluginAnaglyph:
		target = &p.Anaglyph
	case exercise.PluginRecognition:
		target = &p.Recognition
	case exercise.PluginDepth:
		target = &p.Depth
	default:
		return p, fmt.Errorf("%w: %q", exercise.ErrUnknownPlugin, plugin)
	}
	if node.Kind != 0 {
		if err := node.Decode(target); err != nil {
			return p, fmt.Errorf("decode %s parameters: %w", plugin, err)
		}
	}
	if err := ValidateStruct(target); err != nil {
		return p, err
	}
	return p, nil
}

// ApplyAnaglyph overlays the [anaglyph] TOML section onto resolved parameters.
func ApplyAnaglyph(p *exercise.AnaglyphParams, cfg AnaglyphConfig) error {
	if cfg.Size != nil {
		p.Size = *cfg.Size
	}
	if cfg.PixelSize != nil {
		p.PixelSize = *cfg.PixelSize
	}
	if cfg.FocalSize != nil {
		p.FocalSize = *cfg.FocalSize
	}
	if cfg.FocalOffset != nil {
		p.FocalOffset = *cfg.FocalOffset
	}
	return ValidateStruct(p)
}
