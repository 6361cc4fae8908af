package requestlog

import (
	"fmt"
	"time"
)

const RequestTimeLayout = "2006-01-02 15:04:05.000000"

// Entry é um registro de proveniência de requisição.
type Entry struct {
	Address  string
	Identity string
	Time     time.Time
}

func (e Entry) Message() string {
	return fmt.Sprintf("IP: %s, User: %s, Request Time: %s",
		e.Address, e.Identity, e.Time.Format(RequestTimeLayout))
}
