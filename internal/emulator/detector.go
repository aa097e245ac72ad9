// Package emulator decides whether the engine runs on an emulator or a
// simulator. Rules are boolean expr-lang expressions over Env; any rule
// evaluating to true marks the device as emulated.
package emulator

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/dmitrijs2005/deviceid/internal/identity"
)

// Env is the rule environment.
type Env struct {
	Brand        string `expr:"brand"`
	Device       string `expr:"device"`
	Fingerprint  string `expr:"fingerprint"`
	Hardware     string `expr:"hardware"`
	Manufacturer string `expr:"manufacturer"`
	Model        string `expr:"model"`
	Product      string `expr:"product"`
	Simulator    bool   `expr:"simulator"`
}

var AndroidRules = []string{
	`fingerprint startsWith "generic" || fingerprint startsWith "unknown"`,
	`brand startsWith "generic" && device startsWith "generic"`,
	`hardware contains "goldfish" || hardware contains "ranchu"`,
	`product in ["google_sdk", "sdk", "sdk_x86", "vbox86p"] || product contains "sdk_gphone" || product contains "emulator" || product contains "simulator"`,
	`model contains "Emulator" || model contains "Android SDK built for x86" || model contains "google_sdk"`,
	`manufacturer contains "Genymotion"`,
}

var IOSRules = []string{
	`simulator`,
}

type rule struct {
	source  string
	program *exprvm.Program
}

type Detector struct {
	rules []rule
}

// New compiles the platform's default rules followed by extra.
func New(p identity.Platform, extra ...string) (*Detector, error) {
	var sources []string
	switch p {
	case identity.Android:
		sources = append(sources, AndroidRules...)
	case identity.IOS:
		sources = append(sources, IOSRules...)
	}
	sources = append(sources, extra...)

	d := &Detector{rules: make([]rule, 0, len(sources))}
	for _, src := range sources {
		program, err := exprlang.Compile(src, exprlang.Env(Env{}), exprlang.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile emulator rule %q: %w", src, err)
		}
		d.rules = append(d.rules, rule{source: src, program: program})
	}
	return d, nil
}

// Match returns the first rule that holds for env. A rule that fails to
// run counts as false.
func (d *Detector) Match(env Env) (string, bool) {
	for _, r := range d.rules {
		out, err := exprlang.Run(r.program, env)
		if err != nil {
			continue
		}
		if ok, _ := out.(bool); ok {
			return r.source, true
		}
	}
	return "", false
}

func (d *Detector) IsEmulator(env Env) bool {
	_, ok := d.Match(env)
	return ok
}
