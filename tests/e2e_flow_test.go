package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mansoorceksport/liftrecords/internal/server"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Responses are decoded into maps so the test only depends on the wire format.

func TestGoldenPath(t *testing.T) {
	// 1. Setup Infrastructure
	mongoClient, db, cleanupDB := SetupTestDB(t)
	defer cleanupDB()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := TestConfig()

	// 2. Initialize App
	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoDB:     db,
		MongoClient: mongoClient,
		RedisClient: redisClient,
	})

	aliceToken := IssueToken(t, cfg, "user-alice")
	bobToken := IssueToken(t, cfg, "user-bob")

	request := func(method, path, token string, body interface{}, headers ...string) (int, map[string]interface{}, http.Header) {
		var bodyReader io.Reader
		if body != nil {
			jsonBytes, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(jsonBytes)
		}
		req, _ := http.NewRequest(method, path, bodyReader)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()

		var data map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&data)
		return resp.StatusCode, data, resp.Header
	}

	status, _, _ := request("GET", "/v1/me/records", "", nil)
	assert.Equal(t, 401, status)

	// ==========================================
	// STEP 1: Movement, configuration, session
	// ==========================================
	status, movement, _ := request("POST", "/v1/me/movements", aliceToken, map[string]string{
		"name":     "Bench Press",
		"category": "Push",
	})
	require.Equal(t, 201, status)
	movementID := movement["id"].(string)

	status, configuration, _ := request("POST", "/v1/me/configurations", aliceToken, map[string]string{
		"movement_id": movementID,
		"equipment":   "Barbell",
	})
	require.Equal(t, 201, status)
	configID := configuration["id"].(string)

	status, _, _ = request("POST", "/v1/me/configurations", aliceToken, map[string]string{
		"movement_id": movementID,
		"equipment":   "Barbell",
	})
	assert.Equal(t, 409, status)

	status, session, _ := request("POST", "/v1/me/sessions", aliceToken, map[string]string{"name": "Push A"})
	require.Equal(t, 201, status)
	assert.Equal(t, "Planned", session["status"])
	sessionID := session["id"].(string)

	// ==========================================
	// STEP 2: 100kg x 5, then complete the session
	// ==========================================
	status, logged, _ := request("POST", "/v1/me/sessions/"+sessionID+"/sets", aliceToken, map[string]interface{}{
		"type":                      "Lift",
		"exercise_configuration_id": configID,
		"weight":                    100,
		"reps":                      5,
	})
	require.Equal(t, 201, status)
	assert.Nil(t, logged["records"], "sets of an open session are not evaluated yet")

	status, completed, _ := request("POST", "/v1/me/sessions/"+sessionID+"/complete", aliceToken, nil)
	require.Equal(t, 200, status)
	newRecords := completed["new_records"].([]interface{})
	require.Len(t, newRecords, 1)
	first := newRecords[0].(map[string]interface{})
	assert.Equal(t, true, first["is_new_strength_pr"])
	assert.Equal(t, true, first["is_new_volume_pr"])
	firstStrength := first["new_strength_record"].(map[string]interface{})
	firstVolume := first["new_volume_record"].(map[string]interface{})
	assert.Nil(t, firstStrength["previous_record_id"])
	assert.Nil(t, firstVolume["previous_record_id"])

	status, _, _ = request("POST", "/v1/me/sessions/"+sessionID+"/complete", aliceToken, nil)
	assert.Equal(t, 409, status)

	// ==========================================
	// STEP 3: 110kg x 5 logged into the completed session
	// ==========================================
	status, logged, _ = request("POST", "/v1/me/sessions/"+sessionID+"/sets", aliceToken, map[string]interface{}{
		"type":                      "Lift",
		"exercise_configuration_id": configID,
		"weight":                    110,
		"reps":                      5,
	})
	require.Equal(t, 201, status)
	heavySetID := logged["entry"].(map[string]interface{})["id"].(string)
	check := logged["records"].(map[string]interface{})
	assert.Equal(t, firstStrength["id"], check["new_strength_record"].(map[string]interface{})["previous_record_id"])
	assert.Equal(t, firstVolume["id"], check["new_volume_record"].(map[string]interface{})["previous_record_id"])

	status, summary, _ := request("GET", "/v1/me/records/summary/"+configID, aliceToken, nil)
	require.Equal(t, 200, status)
	assert.Equal(t, 110.0, summary["strength"].(map[string]interface{})["weight"])

	// ==========================================
	// STEP 4: edit 110kg x 5 down to 90kg x 5
	// ==========================================
	status, edited, _ := request("PUT", "/v1/me/sets/"+heavySetID, aliceToken, map[string]interface{}{"weight": 90})
	require.Equal(t, 200, status)
	assert.Len(t, edited["reverted"], 2)

	status, summary, _ = request("GET", "/v1/me/records/summary/"+configID, aliceToken, nil)
	require.Equal(t, 200, status)
	strength := summary["strength"].(map[string]interface{})
	volume := summary["volume"].(map[string]interface{})
	assert.Equal(t, firstStrength["id"], strength["id"])
	assert.Equal(t, 100.0, strength["weight"])
	assert.Equal(t, firstVolume["id"], volume["id"])
	assert.Equal(t, true, volume["is_active"])

	status, history, _ := request("GET", "/v1/me/records/history/"+configID+"/strength", aliceToken, nil)
	require.Equal(t, 200, status)
	records := history["records"].([]interface{})
	require.Len(t, records, 2)
	assert.Equal(t, false, records[0].(map[string]interface{})["is_active"])
	assert.Equal(t, true, records[1].(map[string]interface{})["is_active"])

	// ==========================================
	// STEP 5: revert the oldest record, then again
	// ==========================================
	status, reverted, _ := request("POST", "/v1/me/records/"+firstStrength["id"].(string)+"/revert", aliceToken, nil)
	require.Equal(t, 200, status)
	assert.Nil(t, reverted["current_record"])

	status, _, _ = request("POST", "/v1/me/records/"+firstStrength["id"].(string)+"/revert", aliceToken, nil)
	assert.Equal(t, 409, status)

	status, summary, _ = request("GET", "/v1/me/records/summary/"+configID, aliceToken, nil)
	require.Equal(t, 200, status)
	assert.Nil(t, summary["strength"])
	assert.NotNil(t, summary["volume"])

	status, _, _ = request("GET", "/v1/me/records/history/"+configID+"/Endurance", aliceToken, nil)
	assert.Equal(t, 400, status)

	// ==========================================
	// STEP 6: another user sees nothing
	// ==========================================
	status, _, _ = request("GET", "/v1/me/records/summary/"+configID, bobToken, nil)
	assert.Equal(t, 404, status)
	status, _, _ = request("POST", "/v1/me/records/"+firstVolume["id"].(string)+"/revert", bobToken, nil)
	assert.Equal(t, 404, status)
	status, _, _ = request("GET", "/v1/me/sessions/"+sessionID, bobToken, nil)
	assert.Equal(t, 404, status)
	status, _, _ = request("POST", "/v1/me/records/not-an-id/revert", aliceToken, nil)
	assert.Equal(t, 404, status)

	status, bobRecords, _ := request("GET", "/v1/me/records", bobToken, nil)
	require.Equal(t, 200, status)
	assert.Empty(t, bobRecords["records"])

	// ==========================================
	// STEP 7: repeated request with the same correlation id
	// ==========================================
	status, once, _ := request("POST", "/v1/me/sessions", aliceToken, map[string]string{"name": "Pull A"}, "X-Correlation-ID", "retry-1")
	require.Equal(t, 201, status)
	status, twice, headers := request("POST", "/v1/me/sessions", aliceToken, map[string]string{"name": "Pull A"}, "X-Correlation-ID", "retry-1")
	require.Equal(t, 201, status)
	assert.Equal(t, once["id"], twice["id"])
	assert.Equal(t, "true", headers.Get("X-Idempotent-Replay"))
}
