package summary

import (
	"fmt"
	"strings"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Instructions is the system prompt every summary call carries.
const Instructions = "You are a weather forecast analyst that summarises tabular weather data for the common person. " +
	"The person provides the data in the message (temperature in °C, wind speed in mph, rain and showers in mm, snowfall in cm) " +
	"as well as the city, country and context for their personalised summary. " +
	"You should not ask any further questions and only provide a personalised summary with the data given."

// Request is one call to the language model.
type Request struct {
	Model        string
	Input        string
	Instructions string
}

// Shape builds the model input from the location, the user's context and the table.
// Model is left empty; the service fills it from its selector.
func Shape(userText, city, country string, table *weather.DecodedTable) Request {
	data := ""
	if table != nil {
		data = table.String()
	}
	return Request{
		Input: fmt.Sprintf("Country: %s, City: %s\nContext: %s\nData:\n\n%s",
			country, city, strings.TrimSpace(userText), data),
		Instructions: Instructions,
	}
}
