package schema

type Repo struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	URL         string   `yaml:"url"`
	Icon        string   `yaml:"icon,omitempty"`
	Categories  []string `yaml:"categories,omitempty"`
}
