package main

/*

NOTE(@hadydotai): Trimmed down from my validation code. Every sub-command registers its flags on its own
FlagSet and hands the specs over here, env defaults come from env.go. Specs are checked in the order
they're given so the first complaint is always the same one.

*/

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"

	solana "github.com/gagliardetto/solana-go"
)

// FlagRule checks one flag. It gets the validator so it can look at other flags.
type FlagRule func(spec *FlagSpec, v *validator) error

// FlagSpec bundles a flag name, its backing pointer, and the rules to enforce on it.
type FlagSpec struct {
	Name  string
	Value any
	Rules []FlagRule
}

// usageError marks a failure the user fixes by changing flags, main exits 2 on it.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// validateFlags prints the problem and the flag defaults to the FlagSet's output.
func validateFlags(fs *flag.FlagSet, specs []FlagSpec) error {
	err := runFlagValidations(specs)
	if err == nil {
		return nil
	}
	out := fs.Output()
	fmt.Fprintf(out, "configuration error: %v\n\n", err)
	fmt.Fprintf(out, "Usage of %s %s:\n", os.Args[0], fs.Name())
	fs.PrintDefaults()
	return usageError{err}
}

// numericRule builds a rule for int, uint, float and duration flags.
func numericRule(ok func(float64) bool, want string) FlagRule {
	return func(spec *FlagSpec, _ *validator) error {
		n, isNumber := numberValue(spec.Value)
		if !isNumber {
			return fmt.Errorf("flag -%s must be numeric", spec.Name)
		}
		if !ok(n) {
			return fmt.Errorf("flag -%s must be %s", spec.Name, want)
		}
		return nil
	}
}

// stringRule hands check the trimmed value of a string flag.
func stringRule(check func(name, value string) error) FlagRule {
	return func(spec *FlagSpec, _ *validator) error {
		s, ok := stringValue(spec.Value)
		if !ok {
			return fmt.Errorf("flag -%s must be a string", spec.Name)
		}
		return check(spec.Name, strings.TrimSpace(s))
	}
}

// Positive: strictly greater than zero. Durations count as numbers.
func Positive() FlagRule {
	return numericRule(func(n float64) bool { return n > 0 }, "positive")
}

func AtLeast(floor float64) FlagRule {
	return numericRule(func(n float64) bool { return n >= floor }, fmt.Sprintf("at least %v", floor))
}

// FractionBelowOne: [0, 1).
func FractionBelowOne() FlagRule {
	return numericRule(func(n float64) bool { return n >= 0 && n < 1 }, "in [0, 1)")
}

// ValidMint accepts a base58 public key or nothing, pair with NotEmpty when the flag is
// mandatory.
func ValidMint() FlagRule {
	return stringRule(func(name, value string) error {
		if value == "" {
			return nil
		}
		if _, err := solana.PublicKeyFromBase58(value); err != nil {
			return fmt.Errorf("flag -%s is not a valid address: %w", name, err)
		}
		return nil
	})
}

func NotEmpty() FlagRule {
	return stringRule(func(name, value string) error {
		if value == "" {
			return fmt.Errorf("flag -%s must not be empty", name)
		}
		return nil
	})
}

// OneOf compares case-insensitively and lists the choices sorted when it fails.
func OneOf(options ...string) FlagRule {
	choices := make([]string, 0, len(options))
	allowed := make(map[string]bool, len(options))
	for _, opt := range options {
		opt = strings.ToLower(strings.TrimSpace(opt))
		if !allowed[opt] {
			allowed[opt] = true
			choices = append(choices, opt)
		}
	}
	sort.Strings(choices)
	return stringRule(func(name, value string) error {
		if !allowed[strings.ToLower(value)] {
			return fmt.Errorf("flag -%s must be one of [%s]", name, strings.Join(choices, ", "))
		}
		return nil
	})
}

// Requires: once this flag is set, dep must be registered, set, and valid itself.
func Requires(dep string) FlagRule {
	return func(spec *FlagSpec, v *validator) error {
		if !valueProvided(spec.Value) {
			return nil
		}
		target, ok := v.specs[dep]
		if !ok {
			return fmt.Errorf("flag -%s requires -%s, but the dependency is not registered", spec.Name, dep)
		}
		if !valueProvided(target.Value) {
			return fmt.Errorf("flag -%s requires -%s to be set", spec.Name, dep)
		}
		if err := v.check(target); err != nil {
			return fmt.Errorf("flag -%s requires -%s: %w", spec.Name, dep, err)
		}
		return nil
	}
}

type checkState uint8

const (
	unchecked checkState = iota
	checking             // on the stack, a Requires cycle stops here
	checked
)

type validator struct {
	specs map[string]*FlagSpec
	state map[string]checkState
}

func runFlagValidations(specs []FlagSpec) error {
	v := &validator{
		specs: make(map[string]*FlagSpec, len(specs)),
		state: make(map[string]checkState, len(specs)),
	}
	for i := range specs {
		spec := &specs[i]
		switch {
		case spec.Name == "":
			return errors.New("flag spec missing name")
		case spec.Value == nil:
			return fmt.Errorf("flag -%s is missing its backing pointer", spec.Name)
		}
		if _, dup := v.specs[spec.Name]; dup {
			return fmt.Errorf("flag -%s defined more than once", spec.Name)
		}
		v.specs[spec.Name] = spec
	}
	for i := range specs {
		if err := v.check(&specs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) check(spec *FlagSpec) error {
	if v.state[spec.Name] != unchecked {
		return nil
	}
	v.state[spec.Name] = checking
	for _, rule := range spec.Rules {
		if rule == nil {
			continue
		}
		if err := rule(spec, v); err != nil {
			v.state[spec.Name] = unchecked
			return err
		}
	}
	v.state[spec.Name] = checked
	return nil
}

// indirect follows pointers down to the flag's value.
func indirect(value any) (reflect.Value, bool) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

func stringValue(value any) (string, bool) {
	rv, ok := indirect(value)
	if !ok || rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

func numberValue(value any) (float64, bool) {
	rv, ok := indirect(value)
	if !ok {
		return 0, false
	}
	switch {
	case rv.CanInt():
		return float64(rv.Int()), true
	case rv.CanUint():
		return float64(rv.Uint()), true
	case rv.CanFloat():
		return rv.Float(), true
	}
	return 0, false
}

// valueProvided treats blank strings, false and zero numbers as unset.
func valueProvided(value any) bool {
	rv, ok := indirect(value)
	if !ok {
		return false
	}
	if rv.Kind() == reflect.String {
		return strings.TrimSpace(rv.String()) != ""
	}
	return !rv.IsZero()
}
