package logic

import (
	"errors"
	"testing"

	"github.com/0xjesus/bachata-connect-api/internal/model"
)

func TestPostUpdateHostOnly(t *testing.T) {
	db := newTestDB(t)
	host := seedUser(t, db, "host")
	guest := seedUser(t, db, "guest")
	event := seedEvent(t, db, host.ID, "1000.00", "5")
	logic := NewEventUpdateLogic(db)

	update, err := logic.PostUpdate(event.ID, host.ID, "Ya apartamos el salón")
	if err != nil {
		t.Fatalf("host post: %v", err)
	}
	if update.EventID != event.ID || update.AuthorID != host.ID {
		t.Fatalf("unexpected update ownership: %+v", update)
	}

	if _, err := logic.PostUpdate(event.ID, guest.ID, "hola"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("guest post: expected ErrUnauthorized, got %v", err)
	}
	if _, err := logic.PostUpdate(9999, host.ID, "hola"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("missing event: expected ErrEventNotFound, got %v", err)
	}
	if _, err := logic.PostUpdate(event.ID, host.ID, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank content: expected ErrValidation, got %v", err)
	}
}

func TestListUpdatesWithCommentCounts(t *testing.T) {
	db := newTestDB(t)
	host := seedUser(t, db, "host")
	guest := seedUser(t, db, "guest")
	event := seedEvent(t, db, host.ID, "1000.00", "5")
	logic := NewEventUpdateLogic(db)

	first, err := logic.PostUpdate(event.ID, host.ID, "primer aviso")
	if err != nil {
		t.Fatalf("post first update: %v", err)
	}
	if _, err := logic.PostUpdate(event.ID, host.ID, "segundo aviso"); err != nil {
		t.Fatalf("post second update: %v", err)
	}
	for _, content := range []string{"¡vamos!", "ahí estaré"} {
		if _, err := logic.AddComment(first.ID, guest.ID, content); err != nil {
			t.Fatalf("add comment: %v", err)
		}
	}

	updates, err := logic.ListUpdatesBySlug(event.PublicSlug)
	if err != nil {
		t.Fatalf("list updates: %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	counts := map[uint]int64{}
	for _, u := range updates {
		counts[u.ID] = u.CommentCount
	}
	if counts[first.ID] != 2 {
		t.Fatalf("expected 2 comments on first update, got %d", counts[first.ID])
	}

	if _, err := logic.ListUpdatesBySlug("no-such-slug"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("unknown slug: expected ErrEventNotFound, got %v", err)
	}
}

func TestEditUpdateAuthorOnly(t *testing.T) {
	db := newTestDB(t)
	host := seedUser(t, db, "host")
	other := seedUser(t, db, "other")
	event := seedEvent(t, db, host.ID, "1000.00", "5")
	logic := NewEventUpdateLogic(db)

	update, err := logic.PostUpdate(event.ID, host.ID, "fecha por confirmar")
	if err != nil {
		t.Fatalf("post update: %v", err)
	}

	if _, err := logic.EditUpdate(update.ID, other.ID, "hackeado"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign edit: expected ErrUnauthorized, got %v", err)
	}

	edited, err := logic.EditUpdate(update.ID, host.ID, "fecha confirmada: sábado")
	if err != nil {
		t.Fatalf("author edit: %v", err)
	}
	if edited.Content != "fecha confirmada: sábado" {
		t.Fatalf("unexpected content after edit: %q", edited.Content)
	}

	if _, err := logic.EditUpdate(9999, host.ID, "x"); !errors.Is(err, ErrUpdateNotFound) {
		t.Fatalf("missing update: expected ErrUpdateNotFound, got %v", err)
	}
}

func TestDeleteUpdateCascadesComments(t *testing.T) {
	db := newTestDB(t)
	host := seedUser(t, db, "host")
	guest := seedUser(t, db, "guest")
	event := seedEvent(t, db, host.ID, "1000.00", "5")
	logic := NewEventUpdateLogic(db)

	update, err := logic.PostUpdate(event.ID, host.ID, "aviso")
	if err != nil {
		t.Fatalf("post update: %v", err)
	}
	if _, err := logic.AddComment(update.ID, guest.ID, "comentario"); err != nil {
		t.Fatalf("add comment: %v", err)
	}

	if err := logic.DeleteUpdate(update.ID, guest.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("guest delete: expected ErrUnauthorized, got %v", err)
	}
	if err := logic.DeleteUpdate(update.ID, host.ID); err != nil {
		t.Fatalf("host delete: %v", err)
	}

	var comments int64
	if err := db.Model(&model.UpdateComment{}).Where("update_id = ?", update.ID).Count(&comments).Error; err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if comments != 0 {
		t.Fatalf("expected comments deleted with the update, got %d", comments)
	}
	if _, err := logic.ListComments(update.ID); !errors.Is(err, ErrUpdateNotFound) {
		t.Fatalf("expected ErrUpdateNotFound after delete, got %v", err)
	}
}

func TestDeleteCommentPermissions(t *testing.T) {
	db := newTestDB(t)
	host := seedUser(t, db, "host")
	guest := seedUser(t, db, "guest")
	stranger := seedUser(t, db, "stranger")
	event := seedEvent(t, db, host.ID, "1000.00", "5")
	logic := NewEventUpdateLogic(db)

	update, err := logic.PostUpdate(event.ID, host.ID, "aviso")
	if err != nil {
		t.Fatalf("post update: %v", err)
	}
	comment, err := logic.AddComment(update.ID, guest.ID, "comentario")
	if err != nil {
		t.Fatalf("add comment: %v", err)
	}

	if err := logic.DeleteComment(comment.ID, stranger.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger delete: expected ErrUnauthorized, got %v", err)
	}
	// 发起人可以删除别人的评论
	if err := logic.DeleteComment(comment.ID, host.ID); err != nil {
		t.Fatalf("host delete: %v", err)
	}
	if err := logic.DeleteComment(comment.ID, guest.ID); !errors.Is(err, ErrCommentNotFound) {
		t.Fatalf("deleted comment: expected ErrCommentNotFound, got %v", err)
	}

	if _, err := logic.AddComment(9999, guest.ID, "x"); !errors.Is(err, ErrUpdateNotFound) {
		t.Fatalf("missing update: expected ErrUpdateNotFound, got %v", err)
	}
}
