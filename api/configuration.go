package api

import "time"

type Configuration struct {
	Env              string
	AppName          string
	Port             string
	MaxCsvUploadSize int64
	DefaultTimeout   time.Duration
	AllowedOrigins   []string
}
