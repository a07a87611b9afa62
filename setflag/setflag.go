// Package setflag is a flag.Value restricted to a fixed set of options.
package setflag

import (
	"fmt"
	"strings"
)

// New returns a flag holding def, which must be one of options.
func New(def string, options ...string) *SetFlag {
	sf := &SetFlag{
		value:   def,
		options: make(map[string]struct{}, len(options)),
		order:   options,
	}
	for _, opt := range options {
		sf.options[opt] = struct{}{}
	}
	return sf
}

type SetFlag struct {
	value   string
	options map[string]struct{}
	order   []string
}

func (sf *SetFlag) Value() string { return sf.value }

// Options lists the accepted values in declaration order, for usage text.
func (sf *SetFlag) Options() string {
	return strings.Join(sf.order, "|")
}

func (sf *SetFlag) String() string {
	if sf == nil {
		return ""
	}
	return sf.value
}

func (sf *SetFlag) Set(value string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	if _, exists := sf.options[value]; !exists {
		return fmt.Errorf("unsupported value '%s', want one of %s", value, sf.Options())
	}
	sf.value = value
	return nil
}
