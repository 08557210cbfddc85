package analysis

import (
	"strings"

	"github.com/tidwall/gjson"
)

// mockAnnotation stands in for the vision service so synthesis always has a
// structurally valid payload.
var mockAnnotation = []byte(`{
  "responses": [
    {
      "faceAnnotations": [
        {
          "boundingPoly": {
            "vertices": [
              {"x": 100, "y": 100},
              {"x": 300, "y": 100},
              {"x": 300, "y": 300},
              {"x": 100, "y": 300}
            ]
          },
          "landmarks": [
            {"type": "LEFT_EYE", "position": {"x": 150, "y": 150}},
            {"type": "RIGHT_EYE", "position": {"x": 250, "y": 150}},
            {"type": "NOSE_TIP", "position": {"x": 200, "y": 200}},
            {"type": "UPPER_LIP", "position": {"x": 200, "y": 230}},
            {"type": "LOWER_LIP", "position": {"x": 200, "y": 250}}
          ],
          "joyLikelihood": "LIKELY",
          "sorrowLikelihood": "VERY_UNLIKELY",
          "angerLikelihood": "VERY_UNLIKELY",
          "surpriseLikelihood": "VERY_UNLIKELY",
          "underExposedLikelihood": "VERY_UNLIKELY",
          "blurredLikelihood": "VERY_UNLIKELY",
          "headwearLikelihood": "VERY_UNLIKELY"
        }
      ],
      "labelAnnotations": [
        {"description": "Person", "score": 0.95},
        {"description": "Face", "score": 0.92},
        {"description": "Human", "score": 0.89},
        {"description": "Portrait", "score": 0.85},
        {"description": "Beauty", "score": 0.78}
      ],
      "imagePropertiesAnnotation": {
        "dominantColors": {
          "colors": [
            {"color": {"red": 255, "green": 220, "blue": 177}, "score": 0.4},
            {"color": {"red": 139, "green": 69, "blue": 19}, "score": 0.3},
            {"color": {"red": 255, "green": 255, "blue": 255}, "score": 0.2}
          ]
        }
      }
    }
  ]
}`)

// MockAnnotation returns a copy of the canned annotation payload.
func MockAnnotation() []byte {
	out := make([]byte, len(mockAnnotation))
	copy(out, mockAnnotation)
	return out
}

const topLabels = 5

// faceSummary renders the first detected face for the beauty prompt.
func faceSummary(raw []byte) string {
	face := gjson.GetBytes(raw, "responses.0.faceAnnotations.0")
	if !face.Exists() {
		return "Face detected"
	}
	return strings.TrimSpace(gjson.Get(face.Raw, "@pretty").String())
}

// labelSummary renders the top labels for the outfit prompt.
func labelSummary(raw []byte) string {
	labels := gjson.GetBytes(raw, "responses.0.labelAnnotations")
	if !labels.IsArray() || len(labels.Array()) == 0 {
		return "Clothing detected"
	}
	items := labels.Array()
	if len(items) > topLabels {
		items = items[:topLabels]
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Raw)
	}
	return strings.TrimSpace(gjson.Get("["+strings.Join(parts, ",")+"]", "@pretty").String())
}
