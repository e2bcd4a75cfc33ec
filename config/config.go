package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"strconv"
)

type Config struct {
	AppName       string `json:"app_name"`
	ListenIP      string `json:"listen_ip"`
	ListenPort    int    `json:"listen_port"`
	DBPath        string `json:"db_path"`
	AllowedOrigin string `json:"allowed_origin"`
	SessionKey    string `json:"session_key"`
	LogLevel      string `json:"log_level"`
}

var AppConfig Config

func LoadConfig(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		return err
	}

	// Override with environment variables if present
	if envKey := os.Getenv("DOWNTIME_SESSION_KEY"); envKey != "" {
		AppConfig.SessionKey = envKey
	}
	if origin := os.Getenv("DOWNTIME_ALLOWED_ORIGIN"); origin != "" {
		AppConfig.AllowedOrigin = origin
	}
	if dbPath := os.Getenv("DOWNTIME_DB_PATH"); dbPath != "" {
		AppConfig.DBPath = dbPath
	}
	if port := os.Getenv("DOWNTIME_LISTEN_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			AppConfig.ListenPort = p
		}
	}

	if AppConfig.DBPath == "" {
		AppConfig.DBPath = "./downtime.db"
	}
	if AppConfig.LogLevel == "" {
		AppConfig.LogLevel = "info"
	}

	// If no key is provided or it's the placeholder, generate a secure random one
	if AppConfig.SessionKey == "" || AppConfig.SessionKey == "CHANGE_ME_IN_PRODUCTION" {
		log.Println("WARNING: No session key configured. Generating a random key. Cookies will be invalidated on restart.")
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			return err
		}
		AppConfig.SessionKey = hex.EncodeToString(randomKey)
	}

	return nil
}
