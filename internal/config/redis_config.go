package config

type RedisConfig interface {
	// GetRedisAddr is empty when flow state should stay in memory.
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
}

type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"       envDefault:"0"`
}

var _ RedisConfig = Redis{}

func (r Redis) GetRedisAddr() string { return r.Addr }
func (r Redis) GetRedisPassword() string { return r.Password }
func (r Redis) GetRedisDB() int { return r.DB }
