package main

import "github.com/ilyakaznacheev/cleanenv"

type Config struct {
	Server string `yaml:"server" env:"PB_SERVER" env-default:":8080"`

	StoreDriver string `yaml:"store_driver" env:"PB_STORE_DRIVER" env-default:"sqlite"`
	StoreDSN    string `yaml:"store_dsn" env:"PB_STORE_DSN" env-default:"./db/promptbox.sqlite"`
	// StoreQuota bounds the size of a single cache value in bytes; 0 means
	// unbounded.
	StoreQuota int `yaml:"store_quota" env:"PB_STORE_QUOTA" env-default:"5242880"`

	QueueDriver string `yaml:"queue_driver" env:"PB_QUEUE_DRIVER" env-default:"sqlite"`
	QueueDSN    string `yaml:"queue_dsn" env:"PB_QUEUE_DSN" env-default:"./db/promptbox.sqlite"`

	SnapshotURL string `yaml:"snapshot_url" env:"PB_SNAPSHOT_URL"`
	ContentsURL string `yaml:"contents_url" env:"PB_CONTENTS_URL"`
	SyncToken   string `yaml:"sync_token" env:"PB_SYNC_TOKEN"`

	AdminID    string `yaml:"admin_id" env:"PB_ADMIN_ID"`
	AdminToken string `yaml:"admin_token" env:"PB_ADMIN_TOKEN"`

	ImagePrimaryURL  string `yaml:"image_primary_url" env:"PB_IMAGE_PRIMARY_URL"`
	ImageFallbackURL string `yaml:"image_fallback_url" env:"PB_IMAGE_FALLBACK_URL"`
	ImageFallbackKey string `yaml:"image_fallback_key" env:"PB_IMAGE_FALLBACK_KEY"`

	PostBlockExpire string `yaml:"post_block_expire" env:"PB_POST_BLOCK_EXPIRE" env-default:"1m"`
	Translations    string `yaml:"translations" env:"PB_TRANSLATIONS" env-default:"./translations"`
	Language        string `yaml:"language" env:"PB_LANGUAGE" env-default:"en"`

	Title       string `yaml:"title" env:"PB_TITLE" env-default:"Prompt Box"`
	Description string `yaml:"description" env:"PB_DESCRIPTION" env-default:"Community curated prompt gallery"`
	BaseURL     string `yaml:"base_url" env:"PB_BASE_URL" env-default:"http://localhost:8080"`
	AuthorName  string `yaml:"author_name" env:"PB_AUTHOR_NAME"`
	AuthorEmail string `yaml:"author_email" env:"PB_AUTHOR_EMAIL"`
}

func NewConfig() *Config {
	return &Config{}
}

// Load fills the config from the environment, or from a YAML file when one is
// passed as the first argument.
func (c *Config) Load(args []string) error {
	if len(args) > 1 {
		return cleanenv.ReadConfig(args[1], c)
	}
	return cleanenv.ReadEnv(c)
}
