// Package entity models the two profile kinds the platform matches: capital
// providers and capital seekers. They are a tagged variant sharing only the
// fields the entitlement gate needs.
package entity

import (
	"github.com/bwmarrin/snowflake"
	"github.com/venturebridge/venturebridge/internal/tier"
)

// Kind tags the variant.
type Kind string

const (
	KindProvider Kind = "provider"
	KindSeeker   Kind = "seeker"
)

// Entity is the read surface shared by both variants.
type Entity interface {
	EntityID() snowflake.ID
	EntityKind() Kind
	TierID() tier.ID
	Region() string
}

// Provider is a capital provider profile.
type Provider struct {
	ID         snowflake.ID
	Name       string
	ActiveTier tier.ID
	RegionTag  string
	Focus      []string
	TicketMin  int64
	TicketMax  int64
}

func (p Provider) EntityID() snowflake.ID { return p.ID }
func (p Provider) EntityKind() Kind       { return KindProvider }
func (p Provider) TierID() tier.ID        { return p.ActiveTier }
func (p Provider) Region() string         { return p.RegionTag }

// Seeker is a venture seeking capital.
type Seeker struct {
	ID         snowflake.ID
	Name       string
	ActiveTier tier.ID
	RegionTag  string
	Sector     string
	Stage      string
	Raising    int64
}

func (s Seeker) EntityID() snowflake.ID { return s.ID }
func (s Seeker) EntityKind() Kind       { return KindSeeker }
func (s Seeker) TierID() tier.ID        { return s.ActiveTier }
func (s Seeker) Region() string         { return s.RegionTag }
