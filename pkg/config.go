package brain

import (
	"encoding/json"
	"os"
)

type StoreBackend string

const (
	MemoryBackend StoreBackend = "memory"
	BadgerBackend StoreBackend = "badger"
	MySQLBackend  StoreBackend = "mysql"
)

type Configuration struct {
	Verbosity        int          `json:"verbosity"`
	NumWorkers       int          `json:"num_workers"`
	StoreBackend     StoreBackend `json:"store_backend"`
	StorePath        string       `json:"store_path"`
	NoDB             bool         `json:"no_db"`
	SourceFile       string       `json:"source_file"`
	Host             string       `json:"host"`
	Port             int          `json:"port"`
	User             string       `json:"user"`
	Passwd           string       `json:"pass"`
	DBName           string       `json:"dbname"`
	Subject          string       `json:"subject"`
	SessionDate      string       `json:"session_date"`
	GoodTrialsOnly   bool         `json:"good_trials_only"`
	SampleRate       float64      `json:"sample_rate"`
	Attributes       []string     `json:"attributes"`
	FilterParamsID   int          `json:"filter_params_id"`
	FileOut          string       `json:"file_out"`
	CompressionLevel int          `json:"compression_level"`
	MeanCenter       bool         `json:"mean_center"`
	Normalize        bool         `json:"normalize"`
	SoftFactor       float64      `json:"soft_factor"`
	ConditionOrder   []int        `json:"condition_order"`
}

// DefaultConfiguration returns the values used for every field missing from
// the configuration file.
func DefaultConfiguration() Configuration {
	var config Configuration
	config.Verbosity = 0
	config.NumWorkers = 1
	config.StoreBackend = BadgerBackend
	config.StorePath = "brain.badger"
	config.NoDB = false
	config.Host = "localhost"
	config.Port = 3306
	config.User = "pacman"
	config.Passwd = "readonly"
	config.DBName = "churchland_analyses_pacman_brain"
	config.GoodTrialsOnly = false
	config.SampleRate = 1000
	config.Attributes = []string{"neuron_psth"}
	config.FilterParamsID = 0
	config.FileOut = "population.h5"
	config.CompressionLevel = 4
	config.SoftFactor = 0
	return config
}

func LoadConfiguration(filename string) (Configuration, error) {
	config := DefaultConfiguration()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}
