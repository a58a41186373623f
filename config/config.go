package config

import "time"

type Config struct {
	Web     Web
	DB      DB
	Cors    Cors
	Admin   Admin
	Session Session
	Submit  Submit
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type DB struct {
	User       string `conf:"default:postgres"`
	Password   string `conf:"default:postgres,mask"`
	Host       string `conf:"default:localhost"`
	Name       string `conf:"default:storefront"`
	DisableTLS bool   `conf:"default:true"`
}

type Cors struct {
	Origin string
}

// Admin.Token guards the back-office routes. Authentication proper lives
// outside this service; whatever fronts it just has to inject the token.
type Admin struct {
	Token string `conf:"mask"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:168h"`
}

// Submit throttles order submissions per browser session.
type Submit struct {
	Burst    int           `conf:"default:3"`
	Interval time.Duration `conf:"default:2s"`
	Expiry   time.Duration `conf:"default:1h"`
}
