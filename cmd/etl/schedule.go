package main

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// schedule runs task every interval until ctx is done. The first run starts
// immediately; a run still in progress when the next tick fires is not
// overlapped.
func schedule(ctx context.Context, every time.Duration, task func()) error {
	s := gocron.NewScheduler(time.UTC)
	if _, err := s.Every(every).SingletonMode().Do(task); err != nil {
		return err
	}
	log.Printf("schedule: every=%s", every)
	s.StartAsync()
	<-ctx.Done()
	s.Stop()
	log.Printf("schedule: stopped")
	return nil
}
