package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Telegram struct {
		BotToken   string `env:"BOT_TOKEN,required"`
		Debug      bool   `env:"TELEGRAM_DEBUG" envDefault:"false"`
		SupportURL string `env:"SUPPORT_URL" envDefault:"https://t.me/HappySupportStars"`
	}

	CryptoPay struct {
		Token   string `env:"CRYPTO_TOKEN"`
		BaseURL string `env:"CRYPTO_PAY_URL" envDefault:"https://pay.crypt.bot/api"`
	}

	Fragment struct {
		Seed    string `env:"FRAGMENT_SEED"`
		Cookies string `env:"FRAGMENT_COOKIES"`
		BaseURL string `env:"FRAGMENT_API_URL" envDefault:"https://api.fragment-api.com/v1"`
	}

	Pricing struct {
		// Retail price of a single star, in RUB. Crypto prices are derived
		// from it through the current exchange rates.
		StarPriceRUB float64 `env:"STAR_PRICE_RUB" envDefault:"1.38"`
		RatesURL     string  `env:"RATES_URL" envDefault:"https://api.coingecko.com/api/v3"`
	}

	TON struct {
		// When a shop wallet is configured, TON purchases are paid with a
		// direct transfer to it instead of a Crypto Pay invoice.
		ShopWallet string `env:"TON_SHOP_WALLET"`
		ConfigURL  string `env:"TON_CONFIG_URL" envDefault:"https://ton.org/global.config.json"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Игнорируем ошибку, если .env файл не найден
		// В production окружении переменные могут быть установлены напрямую
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
