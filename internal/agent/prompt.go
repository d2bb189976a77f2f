package agent

import (
	"fmt"
	"strings"

	"github.com/xxxsen/jainqa/internal/model"
)

// The instructional template is in Hindi: the agent answers questions
// about Digambar Jain scripture and must conclude in the same language.
const reactTemplate = `आप एक विशेषज्ञ दिगंबर जैन विद्वान और सहायक AI हैं। आपका नाम 'जैन-QA-एजेंट' है।
आपका कार्य उपयोगकर्ताओं को दिगंबर जैन शास्त्रों, तीर्थंकरों और आचरण के बारे में सटीक जानकारी देना है।

हमेशा निम्नलिखित प्रारूप (format) का उपयोग करें:

प्रत्यूत्तर के लिए उपलब्ध उपकरण (Tools): %s

निर्देश:
1. 'Thought': आपको हमेशा सोचना चाहिए कि क्या करना है। (जैसे: मुझे शास्त्र में अहिंसा के बारे में खोजना चाहिए)
2. 'Action': वह उपकरण (tool) जिसे आप चुनेंगे, इन में से एक होना चाहिए: [%s]
3. 'Action Input': उपकरण के लिए खोज शब्द (search query)।
4. 'Observation': उपकरण द्वारा दी गई जानकारी।
... (यह Thought/Action/Action Input/Observation चक्र कई बार दोहराया जा सकता है)
5. 'Thought': अब मुझे अंतिम उत्तर पता चल गया है।
6. 'Final Answer': मूल प्रश्न का विस्तार से और विनम्रतापूर्वक हिंदी में अंतिम उत्तर।

शुरू करें!

चैट का इतिहास (Chat History):
%s

प्रश्न: %s
Thought: %s`

func buildPrompt(tools []Tool, history []model.Turn, question, scratchpad string) string {
	descs := make([]string, 0, len(tools))
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		descs = append(descs, fmt.Sprintf("%s: %s", tool.Name, tool.Description))
		names = append(names, tool.Name)
	}
	return fmt.Sprintf(reactTemplate,
		strings.Join(descs, "; "),
		strings.Join(names, ", "),
		renderHistory(history),
		question,
		scratchpad,
	)
}

func renderHistory(turns []model.Turn) string {
	if len(turns) == 0 {
		return "(कोई पिछली बातचीत नहीं)"
	}
	var sb strings.Builder
	for _, turn := range turns {
		sb.WriteString("उपयोगकर्ता: ")
		sb.WriteString(turn.Question)
		sb.WriteString("\nसहायक: ")
		sb.WriteString(turn.Answer)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
