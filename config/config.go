package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	Database   DatabaseConfigs
	ApiServer  ServerConfigs
	Auth       AuthConfigs
	Session    SessionConfigs
	Redis      RedisConfigs
	Draw       DrawConfigs
	Qualifying QualifyingConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string
	Port string
	Cert string
	Key  string
}

type AuthConfigs struct {
	TokenSecret string
	AccessToken TokenConfigs
}

type TokenConfigs struct {
	Name       string
	Expiration time.Duration
}

type SessionConfigs struct {
	Secret string
	Name   string

	// TTL is the session lifetime. It bounds both the session cookie and
	// the session-scoped flags kept in redis.
	TTL time.Duration
}

type RedisConfigs struct {
	Addr string
}

type DrawConfigs struct {
	// RetryDelay is how long after an exhausted draw the automatic retry
	// runs.
	RetryDelay time.Duration
}

type QualifyingConfigs struct {
	MaxAttempts int
	Cooldown    time.Duration
	TimeLimit   time.Duration
	GracePeriod time.Duration
}
