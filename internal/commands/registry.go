package commands

import "sort"

// Handler executes one command with its arguments.
type Handler func(app *App, args []string) error

// Command is one interactive command.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Run         Handler
}

// Registry maps command names and aliases to commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command under its name and all its aliases.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd.Name
	}
}

// Get resolves a name or alias to its command.
func (r *Registry) Get(name string) (*Command, bool) {
	if canonical, ok := r.aliases[name]; ok {
		name = canonical
	}
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns all registered commands sorted by name.
func (r *Registry) Commands() []*Command {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	cmds := make([]*Command, len(names))
	for i, name := range names {
		cmds[i] = r.commands[name]
	}
	return cmds
}
