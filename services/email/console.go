package emailsvc

import (
	"log"
	"strings"
	"sync"

	"github.com/trezcool/mahudhurio/core"
)

// consoleService writes emails to the console; used in DEV mode.
type consoleService struct {
	sync sync.WaitGroup // lets tests wait for in-flight sends
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService() *consoleService {
	return &consoleService{}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		svc.sync.Add(1)
		go func() {
			defer svc.sync.Done()
			if err := msg.Render(); err != nil {
				log.Printf("emailsvc: rendering message: %v", err)
				return
			}
			if !msg.HasRecipients() || !msg.HasContent() {
				return
			}
			svc.print(msg)
		}()
	}
}

func (svc *consoleService) print(msg *core.EmailMessage) {
	to := make([]string, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, addr.String())
	}
	log.Printf(
		"---------- EMAIL ----------\nTo: %s\nSubject: [%s] %s\n\n%s\n---------------------------",
		strings.Join(to, ", "), core.Conf.AppName, msg.Subject, msg.TextContent,
	)
}

// Wait blocks until all in-flight sends complete.
func (svc *consoleService) Wait() { svc.sync.Wait() }
