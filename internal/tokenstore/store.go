package tokenstore

import (
	"errors"
	"os"
	"strings"
	"sync"
	"time"
	"trade_dash/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken — токена нет вообще; это отдельный случай, не сетевая ошибка.
var ErrNoToken = errors.New("auth token is not available")

type Store interface {
	Token() (string, error)
}

// EnvStore читает bearer-токен из env, затем из файла. Жизненным циклом
// токена владеет внешняя сторона — мы только читаем.
type EnvStore struct {
	envKey   string
	filePath string

	mu        sync.Mutex
	warnedExp bool
}

func NewEnvStore(envKey, filePath string) *EnvStore {
	return &EnvStore{envKey: envKey, filePath: filePath}
}

func (s *EnvStore) Token() (string, error) {
	token := strings.TrimSpace(os.Getenv(s.envKey))
	if token == "" && s.filePath != "" {
		data, err := os.ReadFile(s.filePath)
		if err == nil {
			token = strings.TrimSpace(string(data))
		}
	}
	if token == "" {
		return "", ErrNoToken
	}

	s.checkExpiry(token)
	return token, nil
}

// checkExpiry — токен обычно JWT; подпись не проверяем (не наш секрет),
// но про истёкший exp один раз предупреждаем.
func (s *EnvStore) checkExpiry(token string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return // не JWT — и ладно
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if exp.Before(time.Now()) && !s.warnedExp {
		s.warnedExp = true
		logger.Warn("auth token expired at %s, requests will likely be rejected", exp.Format(time.RFC3339))
	}
	if exp.After(time.Now()) {
		s.warnedExp = false
	}
}

// Static — фиксированный токен, для тестов.
type Static string

func (s Static) Token() (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return string(s), nil
}
