package services

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/tbourn/docset-relay/internal/domain"
	"github.com/tbourn/docset-relay/internal/repo"
)

func TestClampPage(t *testing.T) {
	cases := []struct{ page, size, wantPage, wantSize int }{
		{0, 0, 1, DefaultPageSize},
		{-3, 10, 1, 10},
		{2, 1000, 2, MaxPageSize},
		{5, 1, 5, 1},
	}
	for _, tc := range cases {
		p, s := ClampPage(tc.page, tc.size)
		if p != tc.wantPage || s != tc.wantSize {
			t.Fatalf("ClampPage(%d,%d) = %d,%d; want %d,%d", tc.page, tc.size, p, s, tc.wantPage, tc.wantSize)
		}
	}
}

func TestListMessages_Pages(t *testing.T) {
	ctx := context.Background()
	store, db := newStore(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := repo.CreateMessage(ctx, db, &domain.Message{
			SessionID: "s1", Content: fmt.Sprintf("m%d", i), MessageType: domain.MessageTypeService,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	svc := &SessionService{Store: store}

	items, total, err := svc.ListMessages(ctx, "s1", 2, 2)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 5 || len(items) != 2 || items[0].Content != "m2" || items[1].Content != "m3" {
		t.Fatalf("page 2 = %+v (total %d)", items, total)
	}

	items, total, err = svc.ListMessages(ctx, "s1", 9, 2)
	if err != nil || total != 5 || len(items) != 0 || items == nil {
		t.Fatalf("past end = %+v, %d, %v", items, total, err)
	}

	items, total, err = svc.ListMessages(ctx, "s1", math.MaxInt, MaxPageSize)
	if err != nil || total != 5 || len(items) != 0 {
		t.Fatalf("huge page = %+v, %d, %v", items, total, err)
	}
}
