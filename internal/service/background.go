package service

import (
	"context"
	"log"
	"sync"
	"time"
)

const followUpTimeout = 30 * time.Second

// followUps runs work that must not delay a response, such as notifications.
// Each task gets its own context, detached from the request that scheduled it.
type followUps struct {
	wg sync.WaitGroup
}

func (f *followUps) Go(name string, fn func(ctx context.Context) error) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), followUpTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.Printf("[FOLLOWUP] %s failed: %v", name, err)
		}
	}()
}

// Wait blocks until every scheduled task has finished.
func (f *followUps) Wait() {
	f.wg.Wait()
}
