/*
   SectorForge - floppy disk track & sector codec engine
   Copyright (c) 2024, The SectorForge Authors

   This file is part of SectorForge.

   SectorForge is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   SectorForge is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with SectorForge. If not, see <http://www.gnu.org/licenses/>.
*/

package run

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SECTORFORGE"

const runnerHelpEpilogue = `
All settings can also be provided via environment variables: for setting
'--foo-bar', use SECTORFORGE_FOO_BAR. A flag given on the command line
takes precedence over the environment.`

//
type setting struct {
	target   interface{}
	name     string
	flag     *pflag.Flag
	required bool
}

// Runner is the common base of all commands: a cobra command whose flags
// are mirrored into viper, so every setting can come from the command
// line or from an environment variable.
type Runner struct {
	cmd      *cobra.Command
	v        *viper.Viper
	settings []*setting

	LogLevel string
}

//
func NewRunner(use, short, long, example, epilogue string,
	run func() error) *Runner {

	r := &Runner{v: viper.New()}

	r.cmd = &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long + epilogue,
		Example:       example,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	r.v.SetEnvPrefix(envPrefix)
	r.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	r.v.AutomaticEnv()

	return r
}

// Command exposes the underlying cobra command for wiring into the root.
func (r *Runner) Command() *cobra.Command {
	return r.cmd
}

//
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.LogLevel, "log-level", "l", "", "info",
		"log level (trace, debug, info, warn, error)", false)
}

// AddSetting registers one setting: a pflag on the command, bound into
// viper under the same name, optionally with an explicit env variable
// override. def may be nil for the type's zero value.
func (r *Runner) AddSetting(target interface{}, name, short, env string,
	def interface{}, help string, required bool) {

	flags := r.cmd.Flags()

	switch t := target.(type) {

	case *string:
		d := ""
		if def != nil {
			d = fmt.Sprintf("%v", def)
		}
		flags.StringVarP(t, name, short, d, help)

	case *int:
		d := 0
		if def != nil {
			d, _ = def.(int)
		}
		flags.IntVarP(t, name, short, d, help)

	case *bool:
		d := false
		if def != nil {
			d, _ = def.(bool)
		}
		flags.BoolVarP(t, name, short, d, help)

	default:
		panic(fmt.Sprintf("unsupported setting type for %s", name))
	}

	flag := flags.Lookup(name)
	r.v.BindPFlag(name, flag)
	if env != "" {
		r.v.BindEnv(name, env)
	}
	if required {
		r.cmd.MarkFlagRequired(name)
	}

	r.settings = append(r.settings, &setting{
		target: target, name: name, flag: flag, required: required})
}

// ParseSettings resolves all settings after flag parsing: environment
// values fill in whatever was not given on the command line, and the log
// level is applied.
func (r *Runner) ParseSettings() {

	for _, s := range r.settings {
		if s.flag != nil && s.flag.Changed {
			continue
		}
		if !r.v.IsSet(s.name) {
			continue
		}
		switch t := s.target.(type) {
		case *string:
			*t = r.v.GetString(s.name)
		case *int:
			*t = r.v.GetInt(s.name)
		case *bool:
			*t = r.v.GetBool(s.name)
		}
	}

	if r.LogLevel != "" {
		if lv, err := log.ParseLevel(r.LogLevel); err == nil {
			log.SetLevel(lv)
		} else {
			log.Warnf("unknown log level '%s', keeping %v",
				r.LogLevel, log.GetLevel())
		}
	}
}
