package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/osmium8/reviews-backend/internal/domain"
)

func TestReviews_ApprovalGatesVisibility(t *testing.T) {
	a := newTestApp(t)
	p := a.product(t, domain.Product{Code: "ABC-1"})

	resp := a.sendJSON(t, http.MethodPut, api+"/reviews/addReview/"+p.ID, map[string]any{"rating": 3, "description": "fine"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rv := decode[map[string]any](t, resp)
	assert.Equal(t, false, rv["isApproved"])
	id := rv["id"].(string)

	assert.Equal(t, map[string]any{"reviewsCount": float64(0)}, decode[map[string]any](t, a.get(t, api+"/reviews/get/count")))
	assert.Empty(t, decode[[]map[string]any](t, a.get(t, api+"/reviews/forProduct/"+p.ID)))

	resp = a.sendJSON(t, http.MethodPut, api+"/reviews/"+id, map[string]any{"isApproved": true}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decode[map[string]any](t, resp)["isApproved"])

	assert.Equal(t, map[string]any{"reviewsCount": float64(1)}, decode[map[string]any](t, a.get(t, api+"/reviews/get/count")))
	assert.Len(t, decode[[]map[string]any](t, a.get(t, api+"/reviews/forProduct/"+p.ID)), 1)
}

func TestReviews_ApproveRejections(t *testing.T) {
	a := newTestApp(t)
	p := a.product(t, domain.Product{Code: "ABC-1"})
	rv := a.review(t, p.ID, 4, false)

	resp := a.sendJSON(t, http.MethodPut, api+"/reviews/"+rv.ID, map[string]any{}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = a.sendJSON(t, http.MethodPut, api+"/reviews/"+primitive.NewObjectID().Hex(), map[string]any{"isApproved": true}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviews_CreateAppendsToProduct(t *testing.T) {
	a := newTestApp(t)
	admin := a.adminToken(t)
	p := a.product(t, domain.Product{Code: "ABC-1"})
	userID := primitive.NewObjectID().Hex()

	body := map[string]any{"user": userID, "product": p.ID, "rating": 5, "description": "great"}
	resp := a.sendJSON(t, http.MethodPost, api+"/reviews", body, admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	rv := decode[map[string]any](t, resp)
	assert.Equal(t, p.ID, rv["product"])
	assert.Equal(t, userID, rv["user"])

	stored, err := a.st.Products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{rv["id"].(string)}, stored.ReviewIDs)

	body["product"] = "nope"
	resp = a.sendJSON(t, http.MethodPost, api+"/reviews", body, admin)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid Product Id", decode[map[string]any](t, resp)["message"])

	body["product"] = primitive.NewObjectID().Hex()
	resp = a.sendJSON(t, http.MethodPost, api+"/reviews", body, admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReviews_GetPopulatesAndDeleteLeavesDanglingID(t *testing.T) {
	a := newTestApp(t)
	admin := a.adminToken(t)
	cat := a.category(t, "Phones")
	p := a.product(t, domain.Product{Code: "ABC-1", CategoryID: cat.ID})
	rv := a.review(t, p.ID, 4, true)

	resp := a.get(t, api+"/reviews/"+rv.ID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	product := body["product"].(map[string]any)
	assert.Equal(t, "ABC-1", product["code"])
	assert.Equal(t, "Phones", product["category"].(map[string]any)["name"])
	assert.Nil(t, body["user"])

	list := decode[[]map[string]any](t, a.get(t, api+"/reviews"))
	require.Len(t, list, 1)

	resp = a.do(t, httptest.NewRequest(http.MethodDelete, api+"/reviews/"+rv.ID, nil), admin)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"success": true, "message": "the review is deleted!"}, decode[map[string]any](t, resp))

	resp = a.do(t, httptest.NewRequest(http.MethodDelete, api+"/reviews/"+rv.ID, nil), admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	tree := decode[map[string]any](t, a.get(t, api+"/products/"+p.ID))
	assert.Empty(t, tree["reviews"], "dangling ids are skipped")
	assert.Equal(t, float64(0), tree["totalReviews"])

	assert.Equal(t, http.StatusNotFound, a.get(t, api+"/reviews/"+rv.ID).StatusCode)
}

func TestReviews_ByUserNewestFirst(t *testing.T) {
	a := newTestApp(t)
	p := a.product(t, domain.Product{Code: "ABC-1"})
	userID := primitive.NewObjectID().Hex()

	var ids []string
	for _, desc := range []string{"first", "second"} {
		resp := a.sendJSON(t, http.MethodPut, api+"/reviews/addReview/"+p.ID,
			map[string]any{"user": userID, "rating": 4, "description": desc}, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		ids = append(ids, decode[map[string]any](t, resp)["id"].(string))
	}
	a.review(t, p.ID, 2, true)

	resp := a.get(t, api+"/reviews/get/reviews/"+userID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]map[string]any](t, resp)
	require.Len(t, list, 2)
	assert.Equal(t, ids[1], list[0]["id"])
	assert.Equal(t, ids[0], list[1]["id"])
}

func TestReviews_AddReviewFormEncoded(t *testing.T) {
	a := newTestApp(t)
	p := a.product(t, domain.Product{Code: "ABC-1"})
	userID := primitive.NewObjectID().Hex()

	form := url.Values{"user": {userID}, "rating": {"4"}, "description": {"from a form"}}
	req := httptest.NewRequest(http.MethodPut, api+"/reviews/addReview/"+p.ID, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp := a.do(t, req, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	rv := decode[map[string]any](t, resp)
	assert.Equal(t, userID, rv["user"])
	assert.Equal(t, float64(4), rv["rating"])
	assert.Equal(t, "from a form", rv["description"])
	assert.Equal(t, p.ID, rv["product"])
}
