package fixtures

import (
	"encoding/json"
	"time"
)

func hours(n int) time.Duration {
	return time.Duration(n) * time.Hour
}

func jsonNumber(s string) json.Number {
	return json.Number(s)
}
