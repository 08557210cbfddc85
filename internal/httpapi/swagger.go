package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) swaggerUI(w http.ResponseWriter, r *http.Request) {
	const page = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Glow Check API Swagger</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/docs/openapi.json',
      dom_id: '#swagger-ui'
    });
  </script>
</body>
</html>`
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (h *Handler) swaggerSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, openAPISpec(requestBaseURL(r)))
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")); forwarded != "" {
		scheme = strings.Split(forwarded, ",")[0]
		scheme = strings.TrimSpace(scheme)
	}

	host := strings.TrimSpace(r.Host)
	if host == "" {
		host = "localhost:8080"
	}
	return scheme + "://" + host
}

func ref(name string) map[string]any {
	return map[string]any{"$ref": "#/components/schemas/" + name}
}

func jsonContent(schema map[string]any) map[string]any {
	return map[string]any{
		"application/json": map[string]any{"schema": schema},
	}
}

// operation builds an OpenAPI operation. An empty request schema means the
// operation takes no body; extra maps status codes to descriptions.
func operation(id, summary, request, response string, extra map[string]string) map[string]any {
	responses := map[string]any{
		"200": map[string]any{
			"description": "OK",
			"content":     jsonContent(ref(response)),
		},
		"500": map[string]any{"description": "Internal error", "content": jsonContent(ref("ErrorResponse"))},
	}
	for code, description := range extra {
		responses[code] = map[string]any{"description": description, "content": jsonContent(ref("ErrorResponse"))}
	}
	op := map[string]any{
		"summary":     summary,
		"operationId": id,
		"responses":   responses,
	}
	if request != "" {
		op["requestBody"] = map[string]any{
			"required": true,
			"content":  jsonContent(ref(request)),
		}
	}
	return op
}

func object(props map[string]any) map[string]any {
	return map[string]any{"type": "object", "properties": props}
}

func arrayOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

var (
	stringType  = map[string]any{"type": "string"}
	numberType  = map[string]any{"type": "number"}
	integerType = map[string]any{"type": "integer"}
	booleanType = map[string]any{"type": "boolean"}
)

func openAPISpec(serverURL string) map[string]any {
	badBody := map[string]string{"400": "Bad request body"}
	analysisErrors := map[string]string{
		"400": "Bad request body or missing image",
		"402": "Monthly analysis limit reached",
		"422": "Image could not be encoded",
	}
	challengeErrors := map[string]string{
		"403": "Premium subscription required",
		"404": "Challenge or task not found",
		"409": "Challenge already completed",
	}

	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       "Glow Check API",
			"description": "Beauty and outfit analysis with persisted progress",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": serverURL},
		},
		"paths": map[string]any{
			"/healthz": map[string]any{
				"get": operation("healthz", "Health check", "", "HealthResponse", nil),
			},
			"/api/v1/state": map[string]any{
				"get": operation("getState", "Current app state", "", "AppState", nil),
			},
			"/api/v1/state/name": map[string]any{
				"put": operation("setName", "Set display name", "NameRequest", "AppState", badBody),
			},
			"/api/v1/state/profile": map[string]any{
				"patch": operation("patchProfile", "Merge profile fields", "UserProfile", "AppState", badBody),
			},
			"/api/v1/state/profile/complete": map[string]any{
				"post": operation("completeProfile", "Mark profile complete", "", "AppState", nil),
			},
			"/api/v1/state/onboarding/complete": map[string]any{
				"post": operation("completeOnboarding", "Mark onboarding complete", "", "AppState", nil),
			},
			"/api/v1/state/welcome": map[string]any{
				"put": operation("setWelcome", "Set welcome screen flag", "WelcomeRequest", "AppState", badBody),
			},
			"/api/v1/state/notifications": map[string]any{
				"put": operation("setNotifications", "Toggle notifications", "NotificationsRequest", "AppState", badBody),
			},
			"/api/v1/state/streak/increment": map[string]any{
				"post": operation("incrementStreak", "Increment streak", "", "AppState", nil),
			},
			"/api/v1/state/streak/reset": map[string]any{
				"post": operation("resetStreak", "Reset streak", "", "AppState", nil),
			},
			"/api/v1/state/premium": map[string]any{
				"put": operation("setPremium", "Set subscription", "PremiumRequest", "AppState", badBody),
			},
			"/api/v1/state/quota/reset": map[string]any{
				"post": operation("resetQuota", "Reset monthly analysis count", "", "AppState", nil),
			},
			"/api/v1/analysis/beauty": map[string]any{
				"post": operation("analyzeBeauty", "Analyze a face photo", "BeautyRequest", "BeautyResponse", analysisErrors),
				"get":  operation("beautyHistory", "Beauty analysis history, newest first", "", "BeautyHistory", nil),
			},
			"/api/v1/analysis/outfit": map[string]any{
				"post": operation("analyzeOutfit", "Analyze an outfit photo", "OutfitRequest", "OutfitResponse", analysisErrors),
				"get":  operation("outfitHistory", "Outfit analysis history, newest first", "", "OutfitHistory", nil),
			},
			"/api/v1/stats": map[string]any{
				"get": operation("stats", "Score statistics", "", "Summary", nil),
			},
			"/api/v1/challenges": map[string]any{
				"get": operation("listChallenges", "Challenge catalog with status", "", "ChallengeList", nil),
			},
			"/api/v1/challenges/{id}/join": map[string]any{
				"post": operation("joinChallenge", "Join a challenge", "", "Challenge", challengeErrors),
			},
			"/api/v1/challenges/{id}/tasks/{taskID}/complete": map[string]any{
				"post": operation("completeTask", "Complete a challenge task", "", "TaskResult", challengeErrors),
			},
			"/api/v1/achievements": map[string]any{
				"get": operation("achievements", "Unlocked achievements", "", "AchievementList", nil),
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"HealthResponse": object(map[string]any{"status": stringType}),
				"ErrorResponse":  object(map[string]any{"error": stringType}),
				"NameRequest":    object(map[string]any{"name": stringType}),
				"WelcomeRequest": object(map[string]any{"seen": booleanType}),
				"NotificationsRequest": object(map[string]any{
					"enabled": booleanType,
				}),
				"PremiumRequest": object(map[string]any{
					"status": booleanType,
					"tier": map[string]any{
						"type":        "string",
						"enum":        []string{"free", "pro", "goddess"},
						"description": "Defaults to pro when status is true. free with status true is rejected; status false always stores free.",
					},
				}),
				"UserProfile": object(map[string]any{
					"id":               stringType,
					"name":             stringType,
					"email":            stringType,
					"age":              integerType,
					"skinType":         map[string]any{"type": "string", "enum": []string{"oily", "dry", "combination", "sensitive"}},
					"skinTone":         stringType,
					"faceShape":        stringType,
					"ageGroup":         stringType,
					"location":         stringType,
					"stylePreferences": arrayOf(stringType),
					"favoriteColors":   arrayOf(stringType),
					"goals":            arrayOf(stringType),
					"experienceLevel":  map[string]any{"type": "string", "enum": []string{"beginner", "intermediate", "pro"}},
					"budget":           stringType,
					"joinDate":         stringType,
					"avatar":           stringType,
				}),
				"AppState": object(map[string]any{
					"name":                 stringType,
					"isProfileComplete":    booleanType,
					"isOnboardingComplete": booleanType,
					"profile":              ref("UserProfile"),
					"glowScore":            numberType,
					"outfitScore":          numberType,
					"beautyAnalyses":       arrayOf(ref("BeautyAnalysis")),
					"outfitAnalyses":       arrayOf(ref("OutfitAnalysis")),
					"activeChallenges":     arrayOf(ref("Challenge")),
					"completedChallenges":  arrayOf(ref("Challenge")),
					"achievements":         arrayOf(ref("Achievement")),
					"totalPoints":          integerType,
					"streak":               integerType,
					"lastAnalysis":         stringType,
					"isPremium":            booleanType,
					"subscriptionTier":     stringType,
					"subscriptionExpiry":   stringType,
					"analysisCount":        integerType,
					"monthlyAnalysisLimit": integerType,
					"hasSeenWelcome":       booleanType,
					"notificationsEnabled": booleanType,
				}),
				"BeautyRequest": object(map[string]any{
					"image_base64": stringType,
					"image_url":    stringType,
					"file_name":    stringType,
				}),
				"OutfitRequest": object(map[string]any{
					"image_base64": stringType,
					"image_url":    stringType,
					"file_name":    stringType,
					"event":        stringType,
				}),
				"BeautyAnalysis": object(map[string]any{
					"id":               stringType,
					"glowScore":        numberType,
					"skinQuality":      numberType,
					"symmetry":         numberType,
					"eyeBeauty":        numberType,
					"lipDefinition":    numberType,
					"faceShape":        stringType,
					"skinTone":         stringType,
					"recommendations":  arrayOf(stringType),
					"improvements":     arrayOf(stringType),
					"celebrityMatches": arrayOf(stringType),
					"photoUrl":         stringType,
					"date":             map[string]any{"type": "string", "format": "date-time"},
					"processingTime":   integerType,
				}),
				"OutfitAnalysis": object(map[string]any{
					"id":              stringType,
					"outfitScore":     numberType,
					"colorHarmony":    numberType,
					"fitStyle":        numberType,
					"eventMatch":      numberType,
					"event":           stringType,
					"recommendations": arrayOf(stringType),
					"colorPalette":    arrayOf(stringType),
					"photoUrl":        stringType,
					"date":            map[string]any{"type": "string", "format": "date-time"},
				}),
				"BeautyResponse": object(map[string]any{
					"analysis":          ref("BeautyAnalysis"),
					"fallback":          booleanType,
					"fallback_reason":   stringType,
					"annotation_mocked": booleanType,
					"glow_score":        numberType,
					"streak":            integerType,
				}),
				"OutfitResponse": object(map[string]any{
					"analysis":          ref("OutfitAnalysis"),
					"suggestions":       arrayOf(stringType),
					"color_palette":     arrayOf(stringType),
					"fallback":          booleanType,
					"fallback_reason":   stringType,
					"annotation_mocked": booleanType,
					"outfit_score":      numberType,
					"streak":            integerType,
				}),
				"BeautyHistory": object(map[string]any{"analyses": arrayOf(ref("BeautyAnalysis"))}),
				"OutfitHistory": object(map[string]any{"analyses": arrayOf(ref("OutfitAnalysis"))}),
				"Series": object(map[string]any{
					"count":  integerType,
					"latest": numberType,
					"best":   numberType,
					"mean":   numberType,
					"median": numberType,
					"stdDev": numberType,
					"change": numberType,
					"label":  stringType,
					"color":  stringType,
					"trend":  arrayOf(numberType),
				}),
				"Summary": object(map[string]any{
					"beauty":              ref("Series"),
					"outfit":              ref("Series"),
					"composite":           numberType,
					"streak":              integerType,
					"totalPoints":         integerType,
					"analysisCount":       integerType,
					"remainingAnalyses":   integerType,
					"completedChallenges": integerType,
					"achievements":        integerType,
				}),
				"Task": object(map[string]any{
					"id":            stringType,
					"day":           integerType,
					"title":         stringType,
					"description":   stringType,
					"type":          stringType,
					"completed":     booleanType,
					"points":        integerType,
					"completedDate": stringType,
				}),
				"Challenge": object(map[string]any{
					"id":           stringType,
					"title":        stringType,
					"description":  stringType,
					"duration":     integerType,
					"difficulty":   stringType,
					"category":     stringType,
					"premium":      booleanType,
					"participants": integerType,
					"progress":     numberType,
					"isActive":     booleanType,
					"startDate":    stringType,
					"tasks":        arrayOf(ref("Task")),
				}),
				"ChallengeList": object(map[string]any{"challenges": arrayOf(ref("Challenge"))}),
				"Achievement": object(map[string]any{
					"id":           stringType,
					"title":        stringType,
					"description":  stringType,
					"icon":         stringType,
					"rarity":       stringType,
					"unlockedDate": stringType,
					"points":       integerType,
				}),
				"AchievementList": object(map[string]any{"achievements": arrayOf(ref("Achievement"))}),
				"TaskResult": object(map[string]any{
					"challenge":   ref("Challenge"),
					"completed":   booleanType,
					"totalPoints": integerType,
					"achievement": ref("Achievement"),
				}),
			},
		},
	}
}
