// Copyright (c) 2025 The Pacoca developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/pacoca/pacoca/builtin/strategy"
	"github.com/pacoca/pacoca/pacoca"
)

// Strategy kinds accepted in pool configs.
const (
	StrategySingle   = "single"
	StrategyCompound = "compound"
)

// Amount is a token amount in the smallest unit. In YAML it is either a decimal or
// 0x-prefixed hex integer, or a whole token count suffixed with " tokens".
type Amount struct {
	*uint256.Int
}

// NewAmount wraps v.
func NewAmount(v *uint256.Int) *Amount {
	return &Amount{v}
}

func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := ParseAmount(s)
	if err != nil {
		return err
	}
	a.Int = v
	return nil
}

func (a Amount) MarshalYAML() (any, error) {
	if a.Int == nil {
		return "0", nil
	}
	return a.Dec(), nil
}

// ParseAmount parses an amount in wei, or in whole tokens when suffixed with " tokens".
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if n, ok := strings.CutSuffix(s, " tokens"); ok {
		whole, err := uint256.FromDecimal(strings.TrimSpace(n))
		if err != nil {
			return nil, errors.Wrapf(err, "amount %q", s)
		}
		v, overflow := new(uint256.Int).MulOverflow(whole, pacoca.Precision)
		if overflow {
			return nil, errors.Errorf("amount %q overflows", s)
		}
		return v, nil
	}
	v, err := pacoca.ParseAmount(s)
	if err != nil {
		return nil, errors.Wrapf(err, "amount %q", s)
	}
	return v, nil
}

func (a *Amount) value() *uint256.Int {
	if a == nil || a.Int == nil {
		return nil
	}
	return a.Int
}

// Config describes a deployment: the reward token, the farm and its pools, the
// allocation ledger and whatever else a test network needs.
type Config struct {
	LaunchTime uint64          `yaml:"launchTime"`
	Owner      pacoca.Address  `yaml:"owner"`
	Gov        *pacoca.Address `yaml:"gov,omitempty"`
	// Rewards receives the controller fee of compounding strategies. Defaults to owner.
	Rewards *pacoca.Address `yaml:"rewards,omitempty"`

	Token      TokenConfig       `yaml:"token"`
	Farm       FarmConfig        `yaml:"farm"`
	Allocation *AllocationConfig `yaml:"allocation,omitempty"`
	Timelocks  []TimelockConfig  `yaml:"timelocks,omitempty"`
	// Tokens are further assets, referenced by symbol.
	Tokens []TokenConfig `yaml:"tokens,omitempty"`
	// Venues are external farms compounding strategies stake into.
	Venues   []VenueConfig   `yaml:"venues,omitempty"`
	Pools    []PoolConfig    `yaml:"pools,omitempty"`
	Balances []BalanceConfig `yaml:"balances,omitempty"`
}

type TokenConfig struct {
	Name      string  `yaml:"name"`
	Symbol    string  `yaml:"symbol"`
	MaxSupply *Amount `yaml:"maxSupply,omitempty"`
}

type FarmConfig struct {
	RewardPerBlock *Amount `yaml:"rewardPerBlock"`
	StartBlock     uint32  `yaml:"startBlock"`
	MaxSupply      *Amount `yaml:"maxSupply,omitempty"`
}

type AllocationConfig struct {
	// Curve is "step" (default) or "linear".
	Curve string `yaml:"curve,omitempty"`
}

type TimelockConfig struct {
	Beneficiary pacoca.Address `yaml:"beneficiary"`
	Lock        time.Duration  `yaml:"lock"`
	Amount      *Amount        `yaml:"amount"`
}

type VenueConfig struct {
	Name           string      `yaml:"name"`
	RewardToken    string      `yaml:"rewardToken"`
	RewardPerBlock *Amount     `yaml:"rewardPerBlock"`
	Pools          []VenuePool `yaml:"pools"`
}

type VenuePool struct {
	Asset  string `yaml:"asset"`
	Weight uint64 `yaml:"weight"`
}

type PoolConfig struct {
	Asset    string          `yaml:"asset"`
	Weight   uint64          `yaml:"weight"`
	Strategy string          `yaml:"strategy"`
	Venue    string          `yaml:"venue,omitempty"`
	VenuePid uint64          `yaml:"venuePid,omitempty"`
	Settings *SettingsConfig `yaml:"settings,omitempty"`
}

type SettingsConfig struct {
	EntranceFeeFactor uint64 `yaml:"entranceFeeFactor"`
	WithdrawFeeFactor uint64 `yaml:"withdrawFeeFactor"`
	ControllerFee     uint64 `yaml:"controllerFee"`
	BuyBackRate       uint64 `yaml:"buyBackRate"`
}

func (s *SettingsConfig) settings() strategy.Settings {
	if s == nil {
		return strategy.DefaultSettings()
	}
	return strategy.Settings{
		EntranceFeeFactor: s.EntranceFeeFactor,
		WithdrawFeeFactor: s.WithdrawFeeFactor,
		ControllerFee:     s.ControllerFee,
		BuyBackRate:       s.BuyBackRate,
	}
}

type BalanceConfig struct {
	Address pacoca.Address `yaml:"address"`
	// Token symbol, the reward token when empty.
	Token  string  `yaml:"token,omitempty"`
	Amount *Amount `yaml:"amount"`
}

// LoadConfig reads a YAML deployment config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks references between the sections.
func (c *Config) Validate() error {
	if c.Owner.IsZero() {
		return errors.New("owner required")
	}
	if c.Token.Symbol == "" {
		return errors.New("token.symbol required")
	}
	if c.Farm.RewardPerBlock.value() == nil {
		return errors.New("farm.rewardPerBlock required")
	}

	symbols := map[string]bool{c.Token.Symbol: true}
	for _, t := range c.Tokens {
		if t.Symbol == "" {
			return errors.New("tokens: symbol required")
		}
		if symbols[t.Symbol] {
			return errors.Errorf("tokens: duplicate symbol %s", t.Symbol)
		}
		symbols[t.Symbol] = true
	}

	venues := make(map[string]int)
	// each reward token is minted by exactly one farm
	minted := map[string]bool{c.Token.Symbol: true}
	for _, v := range c.Venues {
		if minted[v.RewardToken] {
			return errors.Errorf("venue %s: reward token %s already minted by another farm", v.Name, v.RewardToken)
		}
		minted[v.RewardToken] = true
		if _, ok := venues[v.Name]; ok {
			return errors.Errorf("venues: duplicate name %s", v.Name)
		}
		if !symbols[v.RewardToken] {
			return errors.Errorf("venue %s: unknown reward token %s", v.Name, v.RewardToken)
		}
		if v.RewardPerBlock.value() == nil {
			return errors.Errorf("venue %s: rewardPerBlock required", v.Name)
		}
		for _, p := range v.Pools {
			if !symbols[p.Asset] {
				return errors.Errorf("venue %s: unknown asset %s", v.Name, p.Asset)
			}
		}
		venues[v.Name] = len(v.Pools)
	}

	assets := make(map[string]bool)
	for i, p := range c.Pools {
		if !symbols[p.Asset] {
			return errors.Errorf("pools[%d]: unknown asset %s", i, p.Asset)
		}
		if assets[p.Asset] {
			return errors.Errorf("pools[%d]: duplicate asset %s", i, p.Asset)
		}
		assets[p.Asset] = true
		if err := p.Settings.settings().Validate(); err != nil {
			return errors.WithMessagef(err, "pools[%d]", i)
		}
		switch p.Strategy {
		case StrategySingle, "":
		case StrategyCompound:
			n, ok := venues[p.Venue]
			if !ok {
				return errors.Errorf("pools[%d]: unknown venue %s", i, p.Venue)
			}
			if p.VenuePid >= uint64(n) {
				return errors.Errorf("pools[%d]: venue %s has no pool %d", i, p.Venue, p.VenuePid)
			}
		default:
			return errors.Errorf("pools[%d]: unknown strategy %q", i, p.Strategy)
		}
	}

	for i, b := range c.Balances {
		if b.Token != "" && !symbols[b.Token] {
			return errors.Errorf("balances[%d]: unknown token %s", i, b.Token)
		}
		if b.Amount.value() == nil {
			return errors.Errorf("balances[%d]: amount required", i)
		}
	}
	for i, tl := range c.Timelocks {
		if tl.Beneficiary.IsZero() || tl.Amount.value() == nil {
			return errors.Errorf("timelocks[%d]: beneficiary and amount required", i)
		}
	}
	if c.Allocation != nil {
		switch c.Allocation.Curve {
		case "", "step", "linear":
		default:
			return fmt.Errorf("allocation: unknown curve %q", c.Allocation.Curve)
		}
	}
	return nil
}
