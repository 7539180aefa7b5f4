package console

import (
	"fmt"
	"sort"
	"strings"
)

// Command is one console command.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Desc    string
	Run     func(ctx *Context) error
}

type registry struct {
	primary map[string]*Command
	lookup  map[string]string
}

func newRegistry() *registry {
	return &registry{
		primary: make(map[string]*Command),
		lookup:  make(map[string]string),
	}
}

func (r *registry) register(cmd *Command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("console: empty command name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("console: %q has no handler", cmd.Name)
	}
	if _, ok := r.lookup[cmd.Name]; ok {
		return fmt.Errorf("console: duplicate command %q", cmd.Name)
	}
	for _, alias := range cmd.Aliases {
		if _, ok := r.lookup[alias]; ok {
			return fmt.Errorf("console: duplicate alias %q", alias)
		}
	}
	r.primary[cmd.Name] = cmd
	r.lookup[cmd.Name] = cmd.Name
	for _, alias := range cmd.Aliases {
		r.lookup[alias] = cmd.Name
	}
	return nil
}

func (r *registry) resolve(name string) *Command {
	if primary, ok := r.lookup[name]; ok {
		return r.primary[primary]
	}
	return nil
}

func (r *registry) commands() []*Command {
	out := make([]*Command, 0, len(r.primary))
	for _, cmd := range r.primary {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
