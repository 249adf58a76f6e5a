package controllers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/ponto-de-fuga/restaurant-api/config"
	"github.com/ponto-de-fuga/restaurant-api/models"
	"github.com/ponto-de-fuga/restaurant-api/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedBill opens table 5 with two X-Bacon and returns it with a fresh token.
func seedBill(t *testing.T, db *gorm.DB) (models.Table, string) {
	t.Helper()
	item := seedMenuItem(t, db, "X-Bacon", "32.90")
	table := seedTable(t, db, 5, models.TableOccupied)
	order := models.Order{TableID: table.ID, MenuItemID: item.ID, Quantity: 2, ItemPrice: item.Price, Status: models.OrderDelivered, WaiterID: waiter.UserID}
	require.NoError(t, db.Create(&order).Error)

	token, err := services.NewBillService(db, 0).Issue(context.Background(), waiter, table.ID)
	require.NoError(t, err)
	return table, token.Token
}

func TestGetBill(t *testing.T) {
	db := setupTestDB(t)
	table, token := seedBill(t, db)
	router := newTestRouter(nobody)

	w, response := doJSON(t, router, http.MethodGet, "/api/v1/bills/"+table.ID+"?token="+token, nil)
	okStatus(t, w, http.StatusOK)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, 65.8, data["table"].(map[string]interface{})["total_amount"])
	orders := data["orders"].([]interface{})
	require.Len(t, orders, 1)
	assert.Equal(t, "X-Bacon", orders[0].(map[string]interface{})["menu_items"].(map[string]interface{})["name"])

	w, response = doJSON(t, router, http.MethodGet, "/api/v1/bills/"+table.ID+"?token=wrong", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TOKEN_NOT_FOUND", errorCode(response))

	other := seedTable(t, db, 6, models.TableOccupied)
	w, _ = doJSON(t, router, http.MethodGet, "/api/v1/bills/"+other.ID+"?token="+token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "tokens only open their own table")

	require.NoError(t, db.Model(&models.BillToken{}).Where("token = ?", token).
		Update("expires_at", time.Now().UTC().Add(-time.Minute)).Error)
	w, response = doJSON(t, router, http.MethodGet, "/api/v1/bills/"+table.ID+"?token="+token, nil)
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(response))
}

func TestGetBillData(t *testing.T) {
	db := setupTestDB(t)
	table, token := seedBill(t, db)
	router := newTestRouter(nobody)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{"camelCase table id", map[string]interface{}{"tableId": table.ID, "token": token}, http.StatusOK, ""},
		{"snake_case table id", map[string]interface{}{"table_id": table.ID, "token": token}, http.StatusOK, ""},
		{"missing token", map[string]interface{}{"tableId": table.ID}, http.StatusBadRequest, "Table ID and token are required"},
		{"wrong token", map[string]interface{}{"tableId": table.ID, "token": "nope"}, http.StatusBadRequest, "Bill link invalid or expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := doJSON(t, router, http.MethodPost, "/functions/v1/get-bill-data", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, response["error"])
				return
			}
			assert.NotContains(t, response, "success", "the function contract has no envelope")
			assert.Equal(t, table.ID, response["table"].(map[string]interface{})["id"])
			assert.Len(t, response["orders"].([]interface{}), 1)
		})
	}
}

func TestSubmitConsent(t *testing.T) {
	db := setupTestDB(t)
	table := seedTable(t, db, 5, models.TableOccupied)
	router := newTestRouter(nobody)

	w, response := doJSON(t, router, http.MethodPost, "/api/v1/bills/"+table.ID+"/consent", map[string]interface{}{
		"consent_given": true,
		"phone":         "+55 11 98765-4321",
	})
	okStatus(t, w, http.StatusCreated)
	assert.Equal(t, "+5511987654321", response["data"].(map[string]interface{})["phone"])

	var stored models.Table
	require.NoError(t, db.First(&stored, "id = ?", table.ID).Error)
	assert.Equal(t, models.TableWaitingPayment, stored.Status)

	w, response = doJSON(t, router, http.MethodPost, "/api/v1/bills/"+table.ID+"/consent", map[string]interface{}{"phone": "11987654321"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response), "consent_given is required")

	w, response = doJSON(t, router, http.MethodPost, "/api/v1/bills/"+table.ID+"/consent", map[string]interface{}{"consent_given": true, "phone": "abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PHONE", errorCode(response))
}

func TestSubmitConsentFunction(t *testing.T) {
	db := setupTestDB(t)
	cfg := config.Default()
	cfg.ConsentLimit = 2
	config.SetConfig(cfg)
	table := seedTable(t, db, 5, models.TableOccupied)
	closed := seedTable(t, db, 6, models.TableClosed)
	router := newTestRouter(nobody)

	submit := func(body map[string]interface{}) (int, map[string]interface{}) {
		w, response := doJSON(t, router, http.MethodPost, "/functions/v1/submit-consent", body)
		return w.Code, response
	}

	code, response := submit(map[string]interface{}{"tableId": table.ID, "consentGiven": false})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, response["success"])
	assert.Equal(t, table.ID, response["data"].(map[string]interface{})["table_id"])

	code, response = submit(map[string]interface{}{"tableId": table.ID, "consentGiven": true})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Phone number is required when consent is given", response["error"])

	code, response = submit(map[string]interface{}{"tableId": "missing", "consentGiven": false})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Invalid table ID", response["error"])

	code, response = submit(map[string]interface{}{"tableId": closed.ID, "consentGiven": false})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Table is not in a valid state for consent submission", response["error"])

	code, _ = submit(map[string]interface{}{"tableId": table.ID, "consentGiven": true, "phone": "11987654321"})
	assert.Equal(t, http.StatusOK, code)

	code, response = submit(map[string]interface{}{"tableId": table.ID, "consentGiven": false})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, response["error"], "Too many consent submissions")

	code, _ = submit(map[string]interface{}{"consentGiven": false})
	assert.Equal(t, http.StatusBadRequest, code)
}
