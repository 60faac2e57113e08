package schema

type File struct {
	Repos    map[string]Repo    `yaml:"repos"`
	Storages map[string]Storage `yaml:"storages"`
	Tasks    Tasks              `yaml:"tasks,omitempty"`
}
