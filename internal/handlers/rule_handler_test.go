package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spendsync/internal/parser"
)

func setupRuleRouter(handler *RuleHandler) *gin.Engine {
	r := gin.New()
	r.GET("/rules", handler.ListRules)
	r.GET("/rules/lookup", handler.LookupRule)
	r.POST("/parse", handler.Parse)
	return r
}

func TestRuleHandler_ListRules(t *testing.T) {
	r := setupRuleRouter(NewRuleHandler(parser.DefaultRegistry()))

	rec := doRequest(r, http.MethodGet, "/rules", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rules := parseJSON(t, rec)["rules"].([]interface{})
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	first := rules[0].(map[string]interface{})
	if first["id"] != "posb" {
		t.Errorf("expected posb first, got %v", first["id"])
	}
}

func TestRuleHandler_LookupRule(t *testing.T) {
	r := setupRuleRouter(NewRuleHandler(parser.DefaultRegistry()))

	t.Run("known sender", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/rules/lookup?sender=Alert@UOBGroup.com", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["id"] != "uob" {
			t.Error("expected uob rule")
		}
	})

	t.Run("unknown sender", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/rules/lookup?sender=someone@example.com", "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "RULE_NOT_FOUND")
	})

	t.Run("missing sender", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/rules/lookup", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestRuleHandler_Parse(t *testing.T) {
	r := setupRuleRouter(NewRuleHandler(parser.DefaultRegistry()))

	t.Run("parsed", func(t *testing.T) {
		rec := doRequest(r, http.MethodPost, "/parse",
			`{"id":"msg-a","from":"ibanking.alert@dbs.com","body":"SGD 50.00 transferred to John Tan via Funds Transfer Reference: ABC123","internalDate":"1700000000000"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["rule_id"] != "posb" {
			t.Errorf("expected posb, got %v", result["rule_id"])
		}
		tx, ok := result["transaction"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected transaction, got %v", result)
		}
		if tx["direction"] != "outgoing" {
			t.Errorf("expected outgoing, got %v", tx["direction"])
		}
		amount, err := decimal.NewFromString(tx["amount"].(string))
		if err != nil || !amount.Equal(decimal.NewFromInt(50)) {
			t.Errorf("expected amount 50, got %v", tx["amount"])
		}
	})

	t.Run("no rule", func(t *testing.T) {
		rec := doRequest(r, http.MethodPost, "/parse", `{"id":"msg-b","from":"news@example.com","body":"hello"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["skipped"] != "no_match" {
			t.Errorf("expected no_match, got %v", result["skipped"])
		}
		if _, ok := result["transaction"]; ok {
			t.Error("expected no transaction")
		}
	})

	t.Run("bad body", func(t *testing.T) {
		rec := doRequest(r, http.MethodPost, "/parse", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
