package schema

const (
	StorageLocal = "local"
	StorageSSH   = "ssh"
	StorageS3    = "s3"
)

type Storage struct {
	Type         string   `yaml:"type"`
	Path         string   `yaml:"path,omitempty"`
	Host         string   `yaml:"host,omitempty"`
	Port         int      `yaml:"port,omitempty"`
	User         string   `yaml:"user,omitempty"`
	IdentityFile string   `yaml:"identity_file,omitempty"`
	Bucket       string   `yaml:"bucket,omitempty"`
	Region       string   `yaml:"region,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	Repos        []string `yaml:"repos"`
}
