package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v2"
)

const (
	DriverDisk   = "disk"
	DriverMemory = "memory"
)

type Server struct {
	API     Api     `yaml:"api"`
	Storage Storage `yaml:"storage"`
	Static  Static  `yaml:"static"`
	Upload  Upload  `yaml:"upload"`
	Address Address `yaml:"address"`
}

type Api struct {
	HTTPAddr string `yaml:"http_addr"`
}

type Storage struct {
	Driver    string `yaml:"driver"`
	UploadDir string `yaml:"upload_dir"`
}

type Static struct {
	IndexPath string `yaml:"index_path"`
}

type Upload struct {
	// MaxBodySize is a human readable size such as "512 MB". Empty or "0" means no limit.
	MaxBodySize string `yaml:"max_body_size"`
}

type Address struct {
	PreferGateway bool `yaml:"prefer_gateway"`
	ShowQR        bool `yaml:"show_qr"`
}

func Default() Server {
	return Server{
		API:     Api{HTTPAddr: "0.0.0.0:3000"},
		Storage: Storage{Driver: DriverDisk, UploadDir: "public/uploads"},
		Static:  Static{IndexPath: "public/index.html"},
	}
}

// Parse reads the YAML file at path on top of Default. An empty path yields the defaults.
func Parse(path string) (Server, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Server{}, fmt.Errorf("can't read config file: %w", err)
	}

	if err = yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Server{}, fmt.Errorf("can't decode config file: %w", err)
	}

	return cfg, nil
}

func (s Server) Validate() error {
	if _, _, err := net.SplitHostPort(s.API.HTTPAddr); err != nil {
		return fmt.Errorf("invalid api.http_addr: %w", err)
	}

	switch s.Storage.Driver {
	case DriverDisk:
		if s.Storage.UploadDir == "" {
			return errors.New("storage.upload_dir is required for the disk driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage.driver %q", s.Storage.Driver)
	}

	if s.Static.IndexPath == "" {
		return errors.New("static.index_path is required")
	}

	if _, err := s.Upload.MaxBytes(); err != nil {
		return err
	}

	return nil
}

// MaxBytes returns the upload body limit in bytes, 0 when unlimited.
func (u Upload) MaxBytes() (int64, error) {
	if u.MaxBodySize == "" {
		return 0, nil
	}

	n, err := humanize.ParseBytes(u.MaxBodySize)
	if err != nil {
		return 0, fmt.Errorf("invalid upload.max_body_size: %w", err)
	}

	return int64(n), nil
}
