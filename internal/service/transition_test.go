package service

import (
	"errors"
	"testing"

	"github.com/atinyakov/WalletKeeper/internal/models"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from models.WalletStatus
		ev   Event
		want models.WalletStatus
	}{
		{models.NotInitialised, EventNoKeysFound, models.FirstTimeAccess},
		{models.NotInitialised, EventKeysFound, models.Locked},
		{models.NotInitialised, EventUnlocked, models.Unlocked},
		{models.Locked, EventUnlocked, models.Unlocked},
		{models.FirstTimeAccess, EventMigrated, models.Unlocked},
		{models.FirstTimeAccess, EventMigrationFailed, models.FirstTimeAccess},
		{models.Unlocked, EventLock, models.NotInitialised},
		{models.NotInitialised, EventReset, models.FirstTimeAccess},
		{models.Locked, EventReset, models.FirstTimeAccess},
		{models.Unlocked, EventReset, models.FirstTimeAccess},
		{models.FirstTimeAccess, EventReset, models.FirstTimeAccess},
	}

	for _, tc := range cases {
		got, err := Transition(tc.from, tc.ev)
		if err != nil {
			t.Errorf("Transition(%s, %s) error: %v", tc.from, tc.ev, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Transition(%s, %s) = %s; want %s", tc.from, tc.ev, got, tc.want)
		}
	}
}

func TestTransition_Rejected(t *testing.T) {
	cases := []struct {
		from models.WalletStatus
		ev   Event
	}{
		{models.FirstTimeAccess, EventUnlocked},
		{models.Locked, EventMigrated},
		{models.Unlocked, EventKeysFound},
		{models.Locked, EventLock},
		{models.NotInitialised, EventLock},
		{models.Unlocked, EventNoKeysFound},
		{models.Unlocked, Event("bogus")},
	}

	for _, tc := range cases {
		got, err := Transition(tc.from, tc.ev)
		if !errors.Is(err, models.ErrInvalidTransition) {
			t.Errorf("Transition(%s, %s) err = %v; want ErrInvalidTransition", tc.from, tc.ev, err)
		}
		if got != tc.from {
			t.Errorf("Transition(%s, %s) moved to %s on rejection", tc.from, tc.ev, got)
		}
	}
}
