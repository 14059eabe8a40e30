package domain

import "testing"

func TestInitValidation(t *testing.T) {
	r := Record{"id": 1}
	r.InitValidation()

	if !r.Validated() {
		t.Error("freshly stamped record should be valid")
	}
	if len(r.ValidationErrors()) != 0 {
		t.Errorf("expected empty error map, got %v", r.ValidationErrors())
	}
}

func TestValidatedBeforeInit(t *testing.T) {
	r := Record{"id": 1}
	if r.Validated() {
		t.Error("unstamped record should report invalid")
	}
}

func TestInvalidate(t *testing.T) {
	r := Record{"id": 1}
	r.InitValidation()

	r.Invalidate("title", "must be a string")
	r.Invalidate("author", "must be a string")

	if r.Validated() {
		t.Error("invalidated record should report invalid")
	}
	errs := r.ValidationErrors()
	if errs["title"] != "must be a string" {
		t.Errorf("title error = %q", errs["title"])
	}
	if len(errs) != 2 {
		t.Errorf("expected 2 errors, got %d", len(errs))
	}
}

func TestCloneIsShallow(t *testing.T) {
	highlights := []Record{{"id": 100}}
	r := Record{"user_book_id": 1, "highlights": highlights}

	c := r.Clone()
	delete(c, "highlights")

	if _, ok := r["highlights"]; !ok {
		t.Error("deleting from the clone must not touch the original")
	}
	if _, ok := c["user_book_id"]; !ok {
		t.Error("clone should carry the original's fields")
	}
}
