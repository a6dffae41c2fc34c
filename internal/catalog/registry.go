// Package catalog loads the dashboard card definitions. The built-in cards are
// embedded; an optional override file is merged on top and watched for changes.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"apilab/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

//go:embed cards.yaml
var builtinCards []byte

//go:embed cards.schema.json
var cardSchemaJSON string

var (
	cardSchemaOnce sync.Once
	cardSchema     *jsonschema.Schema
	cardSchemaErr  error
)

// Snapshot is an ordered, immutable view of the loaded cards.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Cards    []Card
}

// Card looks up a card by id.
func (s Snapshot) Card(id string) (Card, bool) {
	id = strings.TrimSpace(id)
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// ChangeListener runs after a successful reload of the override file.
type ChangeListener func(Snapshot)

type Registry struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry loads the built-in cards and, when path is set, merges and
// watches the override file.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: strings.TrimSpace(path)}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if r.path == "" {
		return r, nil
	}
	v := viper.New()
	v.SetConfigFile(r.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog override failed: %w", err)
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		logger.Debugf("catalog override changed: %s %s", evt.Op, evt.Name)
		if err := r.reload(); err != nil {
			logger.Errorf("catalog reload failed: %v", err)
			return
		}
		r.notifyListeners()
	})
	v.WatchConfig()
	r.v = v
	return r, nil
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

func (r *Registry) Card(id string) (Card, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot.Card(id)
}

// Subscribe registers fn for future reloads.
func (r *Registry) Subscribe(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	base, err := Parse(builtinCards)
	if err != nil {
		return fmt.Errorf("built-in catalog: %w", err)
	}
	cards := base.Cards
	if r.path != "" {
		raw, err := os.ReadFile(r.path)
		if err != nil {
			return fmt.Errorf("read catalog override failed: %w", err)
		}
		override, err := Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(r.path), err)
		}
		cards = merge(cards, override.Cards)
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Cards:    cards,
	}
	r.mu.Unlock()
	logger.Infof("Catalog loaded %d cards", len(cards))
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		func(cb ChangeListener) {
			defer safeRecover("catalog listener")
			cb(snap)
		}(fn)
	}
}

// Parse decodes and validates one catalog document. Unknown fields, schema
// violations, bad templates and duplicate ids are all load errors.
func Parse(raw []byte) (FileConfig, error) {
	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse catalog failed: %w", err)
	}
	if err := validateDocument(raw); err != nil {
		return FileConfig{}, err
	}
	seen := make(map[string]bool, len(cfg.Cards))
	for i, c := range cfg.Cards {
		norm, err := normalizeCard(c)
		if err != nil {
			return FileConfig{}, err
		}
		if seen[norm.ID] {
			return FileConfig{}, fmt.Errorf("duplicate card id %q", norm.ID)
		}
		seen[norm.ID] = true
		cfg.Cards[i] = norm
	}
	return cfg, nil
}

func validateDocument(raw []byte) error {
	schema, err := compiledCardSchema()
	if err != nil {
		return err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse catalog failed: %w", err)
	}
	// Round trip through JSON so numbers and maps have the shapes the
	// validator expects.
	buf, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("catalog is not JSON compatible: %w", err)
	}
	var generic any
	if err := json.Unmarshal(buf, &generic); err != nil {
		return err
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("catalog schema: %w", err)
	}
	return nil
}

func compiledCardSchema() (*jsonschema.Schema, error) {
	cardSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("cards.schema.json", strings.NewReader(cardSchemaJSON)); err != nil {
			cardSchemaErr = err
			return
		}
		cardSchema, cardSchemaErr = compiler.Compile("cards.schema.json")
	})
	return cardSchema, cardSchemaErr
}

// merge replaces cards with matching ids in place and appends new ones.
func merge(base, override []Card) []Card {
	out := append([]Card(nil), base...)
	index := make(map[string]int, len(out))
	for i, c := range out {
		index[c.ID] = i
	}
	for _, c := range override {
		if i, ok := index[c.ID]; ok {
			out[i] = c
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out
}

func cloneSnapshot(src Snapshot) Snapshot {
	return Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Cards:    append([]Card(nil), src.Cards...),
	}
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}
