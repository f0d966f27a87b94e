package ui

import (
	"strings"

	scripthost "github.com/reglet-dev/reglet-scripthost"
)

// Kind is the closed set of option kinds.
type Kind int

const (
	KindLabel Kind = iota + 1
	KindSelector
	KindButton
)

func (k Kind) String() string {
	switch k {
	case KindLabel:
		return "Label"
	case KindSelector:
		return "Selector"
	case KindButton:
		return "Button"
	default:
		return "Invalid"
	}
}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds() {
		if strings.EqualFold(s, k.String()) {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns every option kind.
func Kinds() []Kind { return []Kind{KindLabel, KindSelector, KindButton} }

// Callback is an interaction handler held by buttons and selectors.
// Selectors receive the new bool value; buttons receive nothing.
type Callback func(args ...any) error

// payload is the kind-specific part of an Option. Exactly one concrete type
// exists per Kind.
type payload interface {
	kind() Kind
}

type labelPayload struct{}

type selectorPayload struct {
	value    bool
	onChange Callback
}

type buttonPayload struct {
	onPress Callback
}

func (labelPayload) kind() Kind { return KindLabel }
func (*selectorPayload) kind() Kind { return KindSelector }
func (*buttonPayload) kind() Kind { return KindButton }

func newPayload(k Kind, cfg entryConfig) payload {
	switch k {
	case KindLabel:
		return labelPayload{}
	case KindSelector:
		return &selectorPayload{value: cfg.value, onChange: cfg.callback}
	case KindButton:
		return &buttonPayload{onPress: cfg.callback}
	}
	return nil
}

// Option is one element inside a Tab. Its ID never changes after registration.
type Option struct {
	id      string
	name    string
	visible bool
	enabled bool
	owner   scripthost.Generation
	payload payload
}

func (o *Option) ID() string { return o.id }
func (o *Option) Name() string { return o.name }
func (o *Option) Kind() Kind { return o.payload.kind() }
func (o *Option) Visible() bool { return o.visible }
func (o *Option) Enabled() bool { return o.enabled }
func (o *Option) Owner() scripthost.Generation { return o.owner }

// Value returns a selector's current state; other kinds report false.
func (o *Option) Value() bool {
	if p, ok := o.payload.(*selectorPayload); ok {
		return p.value
	}
	return false
}

// OptionPatch is a partial update. Nil fields are left unchanged.
// NewName is accepted as an alias of DisplayName.
type OptionPatch struct {
	OptionID    string  `json:"OptionId"`
	DisplayName *string `json:"DisplayName,omitempty"`
	NewName     *string `json:"NewName,omitempty"`
	Visible     *bool   `json:"Visible,omitempty"`
	Enabled     *bool   `json:"Enabled,omitempty"`
	Value       *bool   `json:"Value,omitempty"`
}

func (p OptionPatch) name() *string {
	if p.DisplayName != nil {
		return p.DisplayName
	}
	return p.NewName
}

// validate checks the patch against o without applying it.
func (p OptionPatch) validate(o *Option) Status {
	if n := p.name(); n != nil && strings.TrimSpace(*n) == "" {
		return InvalidArgument
	}
	if p.Value != nil && o.Kind() != KindSelector {
		return InvalidArgument
	}
	return Ok
}

func (p OptionPatch) apply(o *Option) {
	if n := p.name(); n != nil {
		o.name = *n
	}
	if p.Visible != nil {
		o.visible = *p.Visible
	}
	if p.Enabled != nil {
		o.enabled = *p.Enabled
	}
	if p.Value != nil {
		o.payload.(*selectorPayload).value = *p.Value
	}
}
