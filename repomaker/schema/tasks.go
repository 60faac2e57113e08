package schema

type Tasks struct {
	UpdateSchedule string `yaml:"update_schedule,omitempty"`
	Parallelism    string `yaml:"parallelism,omitempty"`
	MaxConcurrent  int    `yaml:"max_concurrent,omitempty"`
	Watch          bool   `yaml:"watch,omitempty"`
}
