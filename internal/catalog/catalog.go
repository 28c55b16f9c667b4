// Package catalog holds the priced content the economy sells: recharge
// tiers, characters, gifts, and the seed moments and demo accounts. It is
// the single source of truth for prices and is loaded from a YAML/JSON/TOML
// file through viper, falling back to the built-in Default catalog.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// RechargeTier maps a paid amount (currency units) to credited coins.
type RechargeTier struct {
	Amount int64 `mapstructure:"amount" json:"amount"`
	Coins  int64 `mapstructure:"coins"  json:"coins"`
	Bonus  int64 `mapstructure:"bonus"  json:"bonus"`
}

// Total is the number of coins a recharge of this tier credits.
func (t RechargeTier) Total() int64 { return t.Coins + t.Bonus }

// CharacterSpec describes a catalog character.
type CharacterSpec struct {
	Name        string   `mapstructure:"name"`
	Avatar      string   `mapstructure:"avatar"`
	Description string   `mapstructure:"description"`
	Personality string   `mapstructure:"personality"`
	Category    string   `mapstructure:"category"`
	Tags        []string `mapstructure:"tags"`
	Greeting    string   `mapstructure:"greeting"`
	Premium     bool     `mapstructure:"premium"`
	Price       int64    `mapstructure:"price"`
}

// GiftSpec describes a purchasable gift.
type GiftSpec struct {
	Name        string `mapstructure:"name"`
	Icon        string `mapstructure:"icon"`
	Price       int64  `mapstructure:"price"`
	Affinity    int64  `mapstructure:"affinity"`
	Description string `mapstructure:"description"`
	SortOrder   int    `mapstructure:"sort_order"`
}

// MomentSpec is a seed post; Character refers to a CharacterSpec name.
type MomentSpec struct {
	Character string   `mapstructure:"character"`
	Content   string   `mapstructure:"content"`
	Images    []string `mapstructure:"images"`
}

// AccountSpec seeds a demo account.
type AccountSpec struct {
	ID       string `mapstructure:"id"`
	Coins    int64  `mapstructure:"coins"`
	VIPLevel int    `mapstructure:"vip_level"`
	VIPDays  int    `mapstructure:"vip_days"`
	Status   string `mapstructure:"status"`
}

// Catalog is the full priced content set.
type Catalog struct {
	RechargeTiers []RechargeTier  `mapstructure:"recharge_tiers"`
	Characters    []CharacterSpec `mapstructure:"characters"`
	Gifts         []GiftSpec      `mapstructure:"gifts"`
	Moments       []MomentSpec    `mapstructure:"moments"`
	Accounts      []AccountSpec   `mapstructure:"accounts"`
}

// Load reads a catalog file. The format follows the file extension.
func Load(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var c Catalog
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}

// LoadOrDefault loads path when set and returns Default otherwise.
func LoadOrDefault(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the pricing rules the economy relies on.
func (c *Catalog) Validate() error {
	if len(c.RechargeTiers) == 0 {
		return errors.New("at least one recharge tier is required")
	}
	amounts := make(map[int64]bool, len(c.RechargeTiers))
	for _, t := range c.RechargeTiers {
		if t.Amount <= 0 || t.Coins <= 0 || t.Bonus < 0 {
			return fmt.Errorf("recharge tier %d: amount and coins must be > 0, bonus >= 0", t.Amount)
		}
		if amounts[t.Amount] {
			return fmt.Errorf("recharge tier %d declared twice", t.Amount)
		}
		amounts[t.Amount] = true
	}

	names := make(map[string]bool, len(c.Characters))
	for _, ch := range c.Characters {
		if strings.TrimSpace(ch.Name) == "" || strings.TrimSpace(ch.Greeting) == "" {
			return errors.New("characters need a name and a greeting")
		}
		if names[ch.Name] {
			return fmt.Errorf("character %q declared twice", ch.Name)
		}
		names[ch.Name] = true
		if ch.Premium != (ch.Price > 0) || ch.Price < 0 {
			return fmt.Errorf("character %q: premium characters need a positive price, free ones none", ch.Name)
		}
	}

	gifts := make(map[string]bool, len(c.Gifts))
	for _, g := range c.Gifts {
		if strings.TrimSpace(g.Name) == "" || g.Price <= 0 {
			return fmt.Errorf("gift %q: name and positive price required", g.Name)
		}
		if gifts[g.Name] {
			return fmt.Errorf("gift %q declared twice", g.Name)
		}
		gifts[g.Name] = true
	}

	for _, m := range c.Moments {
		if !names[m.Character] {
			return fmt.Errorf("moment refers to unknown character %q", m.Character)
		}
		if strings.TrimSpace(m.Content) == "" {
			return fmt.Errorf("moment of %q has no content", m.Character)
		}
	}

	for _, a := range c.Accounts {
		if strings.TrimSpace(a.ID) == "" || a.Coins < 0 || a.VIPLevel < 0 || a.VIPDays < 0 {
			return fmt.Errorf("account %q: id required, coins and vip values must be >= 0", a.ID)
		}
		switch a.Status {
		case "", "active", "banned":
		default:
			return fmt.Errorf("account %q: unknown status %q", a.ID, a.Status)
		}
	}
	return nil
}

// Tier returns the recharge tier for a paid amount.
func (c *Catalog) Tier(amount int64) (RechargeTier, bool) {
	for _, t := range c.RechargeTiers {
		if t.Amount == amount {
			return t, true
		}
	}
	return RechargeTier{}, false
}

// Tiers returns the recharge tiers sorted by amount.
func (c *Catalog) Tiers() []RechargeTier {
	out := append([]RechargeTier(nil), c.RechargeTiers...)
	sort.Slice(out, func(i, j int) bool { return out[i].Amount < out[j].Amount })
	return out
}
