package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/bobinette/paperbank"
	"github.com/bobinette/paperbank/auth"
	"github.com/bobinette/paperbank/bleve"
	"github.com/bobinette/paperbank/bolt"
	"github.com/bobinette/paperbank/credits"
	"github.com/bobinette/paperbank/extract"
	"github.com/bobinette/paperbank/jwt"
	"github.com/bobinette/paperbank/log"
	"github.com/bobinette/paperbank/papers"
	"github.com/bobinette/paperbank/storage"
)

var (
	// flags
	verbose    bool
	env        string
	configFile string

	// logger
	logger log.Logger

	// auth
	tokenEncoder *jwt.EncodeDecoder
	googleClient *auth.GoogleClient

	// drivers
	boltDriver *bolt.Driver
	paperIndex *bleve.PaperIndex

	// stores
	paperStore  paperbank.PaperStore
	userStore   paperbank.UserStore
	fileStorage paperbank.FileStorage

	// services
	userService  *auth.UserService
	paperService *papers.Service
)

type Configuration struct {
	Auth struct {
		Key      string   `toml:"key"`
		Google   string   `toml:"google"`
		Domains  []string `toml:"domains"`
		Issuer   string   `toml:"issuer"`
		TokenTTL string   `toml:"token_ttl"`
	} `toml:"auth"`
	Bolt struct {
		Store string `toml:"store"`
	} `toml:"bolt"`
	Bleve struct {
		Store string `toml:"store"`
	} `toml:"bleve"`
	Storage struct {
		Type  string              `toml:"type"`
		Dir   string              `toml:"dir"`
		Minio storage.MinioConfig `toml:"minio"`
	} `toml:"storage"`
	Credits credits.Amounts `toml:"credits"`
	Upload  struct {
		MaxFileSize int64 `toml:"max_file_size"`
	} `toml:"upload"`
	OCR struct {
		URL       string `toml:"url"`
		Pdftotext string `toml:"pdftotext"`
	} `toml:"ocr"`
	Web struct {
		Addr string `toml:"addr"`
	} `toml:"web"`
}

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose mode")
	RootCmd.PersistentFlags().StringVar(&env, "env", "dev", "environment")
	RootCmd.PersistentFlags().StringVar(&configFile, "config", "", "configuration file")
}

var webAddr string

var RootCmd = cobra.Command{
	Use:   "paperbank",
	Short: "Share and find past exam papers",
	Long:  "Share and find past exam papers",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Create logger
		logger = log.New(env)

		// Load configuration
		if configFile == "" {
			configFile = path.Join("configuration", fmt.Sprintf("config.%s.toml", env))
		}
		cfgData, err := ioutil.ReadFile(configFile)
		if err != nil {
			logger.Fatal("error reading configuration: ", err)
		}

		var cfg Configuration
		if err := toml.Unmarshal(cfgData, &cfg); err != nil {
			logger.Fatal("error unmarshalling configuration: ", err)
		}
		if cfg.Credits == (credits.Amounts{}) {
			cfg.Credits = credits.DefaultAmounts()
		}
		webAddr = cfg.Web.Addr

		// Create encoder
		keyData, err := ioutil.ReadFile(cfg.Auth.Key)
		if err != nil {
			logger.Fatal("could not open key file: ", err)
		}
		var key paperbank.SigningKey
		if err := json.Unmarshal(keyData, &key); err != nil {
			logger.Fatal("could not read key file: ", err)
		}
		tokenEncoder = jwt.NewEncodeDecoder([]byte(key.Key))
		tokenEncoder.Issuer = cfg.Auth.Issuer
		if cfg.Auth.TokenTTL != "" {
			ttl, err := time.ParseDuration(cfg.Auth.TokenTTL)
			if err != nil {
				logger.Fatal("could not parse token ttl: ", err)
			}
			tokenEncoder.TTL = ttl
		}

		// Create google client
		googleClient, err = auth.NewGoogleClient(cfg.Auth.Google)
		if err != nil {
			logger.Fatal("could not create google client: ", err)
		}

		// Create stores
		boltDriver = &bolt.Driver{}
		if err := boltDriver.Open(cfg.Bolt.Store); err != nil {
			logger.Fatal("could not open bolt database: ", err)
		}
		paperStore = &bolt.PaperStore{Driver: boltDriver}
		userStore = &bolt.UserStore{Driver: boltDriver}

		// Create index
		paperIndex = &bleve.PaperIndex{}
		if err := paperIndex.Open(cfg.Bleve.Store); err != nil {
			logger.Fatal("could not open search index: ", err)
		}

		// Create file storage
		switch cfg.Storage.Type {
		case "minio":
			fileStorage, err = storage.NewMinio(context.Background(), cfg.Storage.Minio)
			if err != nil {
				logger.Fatal("could not create minio storage: ", err)
			}
		default:
			fileStorage, err = storage.NewLocal(cfg.Storage.Dir)
			if err != nil {
				logger.Fatal("could not create local storage: ", err)
			}
		}

		// Create extractor
		var extractor extract.Extractor
		if cfg.OCR.URL != "" {
			extractor = &extract.ServiceExtractor{URL: cfg.OCR.URL, Logger: logger}
		} else {
			extractor = &extract.PatternExtractor{
				Runner: extract.PdftotextRunner{Bin: cfg.OCR.Pdftotext},
				Logger: logger,
			}
		}

		// Create services
		ledger := credits.NewLedger(userStore, cfg.Credits)
		userService = auth.NewUserService(userStore, cfg.Credits.Signup, cfg.Auth.Domains)
		paperService = papers.NewService(
			paperStore,
			paperIndex,
			userStore,
			fileStorage,
			extractor,
			ledger,
			cfg.Upload.MaxFileSize,
			logger,
		)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		boltDriver.Close()
		paperIndex.Close()
	},
}
