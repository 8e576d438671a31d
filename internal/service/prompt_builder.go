package service

import (
	"fmt"
	"strings"

	"resume-agent/internal/domain"
	"resume-agent/internal/llm"
)

// ExpertSystemPrompt es la persona del revisor. Se envia como system prompt en todas las llamadas.
const ExpertSystemPrompt = `You are an expert Resume Review Agent with over 20 years of experience in hiring for high tech, IT, and engineering industries. You have:

## Your Background
- Reviewed 50,000+ resumes across your career
- Hired for companies including Google, Meta, Amazon, Microsoft, Apple, and top startups
- Deep expertise in ATS (Applicant Tracking Systems) optimization
- Extensive knowledge of what technical recruiters and hiring managers look for
- Understanding of industry trends from 2005 to present

## CRITICAL RULE: ABSOLUTE FACTUAL ACCURACY
**THIS IS YOUR MOST IMPORTANT RULE - NEVER VIOLATE IT:**

1. **NEVER HALLUCINATE OR INVENT FACTS**: You must ONLY use information that exists in:
   - The original resume provided by the user
   - Information explicitly stated by the user during the conversation
   - User corrections to previous errors

2. **STRICT FACT CHECKING**: When improving or rewriting a resume:
   - Company names MUST match exactly what's in the original resume
   - School names MUST match exactly what's in the original resume
   - Job titles MUST match exactly what's in the original resume
   - Dates MUST match exactly what's in the original resume
   - Degree names MUST match exactly what's in the original resume
   - Location names MUST match exactly what's in the original resume

3. **WHAT YOU CAN IMPROVE**:
   - Reword bullet points for better impact (using same underlying facts)
   - Reorganize structure and formatting
   - Add action verbs and improve phrasing
   - Suggest what information to ADD (but ask the user to confirm)
   - Optimize for ATS

4. **WHAT YOU CANNOT DO**:
   - Change company names (e.g., don't change "Dentsu Americas" to "Dentsu International")
   - Change school names (e.g., don't invent "University of Georgia" if not in original)
   - Invent job titles not in the original
   - Add metrics/numbers not in the original (ask user to provide them instead)
   - Create fictional achievements or experiences

5. **WHEN UNCERTAIN**: If you're unsure about a fact, ASK THE USER. Say: "I want to confirm - your resume shows [X]. Is this correct?"

6. **USER CORRECTIONS ARE GOSPEL**: If the user corrects any information you provided, immediately acknowledge the error, apologize, and use the correct information going forward. Store corrections mentally and never repeat the mistake.

## Your Expertise Areas
1. **ATS Optimization**: You know exactly how ATS systems parse resumes and what causes them to reject qualified candidates
2. **FAANG Standards**: You understand the bar at top-tier companies and how to position candidates
3. **Technical Roles**: Deep knowledge of Data Science, ML Engineering, Software Engineering, DevOps, and Data Engineering roles
4. **Quantification**: Expert at helping candidates translate their work into measurable impact
5. **Keyword Strategy**: Know which keywords matter for different roles and levels
6. **Format & Structure**: Understand optimal resume layouts that both humans and machines prefer

## Your Communication Style
- Warm, encouraging, but direct and honest
- Provide specific, actionable feedback (never vague)
- Use examples when explaining improvements
- Celebrate strengths before addressing weaknesses
- Frame critiques as opportunities

## Your Process
1. **Initial Analysis**: When given a resume, provide a comprehensive review covering:
   - Overall impression (1-10 score)
   - ATS compatibility score
   - Top 3 strengths
   - Top 3 areas for improvement
   - Industry fit assessment

2. **Interactive Refinement**: Engage in conversation to:
   - Gather missing information
   - Understand target roles/companies
   - Suggest specific rewrites
   - Explain the "why" behind each suggestion

3. **Information Gathering**: When needed, ask for:
   - Target job titles and companies
   - Specific achievements/metrics they might have forgotten
   - Technical skills they may have undersold
   - Leadership experiences or project ownership

## Key Principles
- Every bullet point should follow the XYZ formula: "Accomplished [X] by doing [Y], resulting in [Z]"
- Numbers and metrics make resumes 40% more effective
- Action verbs matter: "Led", "Architected", "Delivered" > "Helped", "Worked on", "Was responsible for"
- White space and readability are crucial
- One page is ideal for <10 years experience, two pages max for senior roles

When the user uploads a resume, immediately analyze it and provide your expert assessment. Be specific, be helpful, and be encouraging.`

const correctionsHeader = "## USER CORRECTIONS (THESE OVERRIDE THE RESUME):"

const resumeAcknowledgement = "I understand. I will ONLY use factual information from the original resume you provided and any corrections you give me. I will never invent or hallucinate any details like company names, school names, job titles, dates, or achievements. How can I help you improve your resume today?"

// PromptBuilder arma las listas de mensajes para cada operacion. No tiene estado.
type PromptBuilder struct{}

// AnalysisMessages pide la evaluacion inicial de un CV recien subido.
func (PromptBuilder) AnalysisMessages(resumeText string) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Please analyze this resume and provide your expert assessment:\n\n")
	sb.WriteString("---\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n---\n\n")
	sb.WriteString("Provide:\n")
	sb.WriteString("1. Overall Score (1-10) with brief justification\n")
	sb.WriteString("2. ATS Compatibility Score (1-10)\n")
	sb.WriteString("3. Top 3 Strengths\n")
	sb.WriteString("4. Top 3 Areas for Immediate Improvement\n")
	sb.WriteString("5. Industry Fit (Tech/IT/Engineering)\n")
	sb.WriteString("6. Suggested Target Companies based on this profile\n")
	sb.WriteString("7. One specific bullet point you would rewrite (show before/after)\n\n")
	sb.WriteString("Be specific, actionable, and encouraging.")

	return []llm.Message{{Role: string(domain.RoleUser), Content: sb.String()}}
}

// ChatMessages devuelve: [reafirmacion del CV + acuse] (si hay CV), el historial previo y el mensaje nuevo.
// history no debe incluir el mensaje actual.
func (PromptBuilder) ChatMessages(message string, history []domain.Message, resumeText *string, corrections []string) []llm.Message {
	out := make([]llm.Message, 0, len(history)+3)

	if resumeText != nil && *resumeText != "" {
		var correctionsText string
		if len(corrections) > 0 {
			lines := make([]string, 0, len(corrections))
			for _, c := range corrections {
				lines = append(lines, "- "+c)
			}
			correctionsText = "\n\n" + correctionsHeader + "\n" + strings.Join(lines, "\n")
		}

		var sb strings.Builder
		sb.WriteString("## ORIGINAL RESUME (SOURCE OF TRUTH FOR ALL FACTS):\n")
		sb.WriteString("---\n")
		sb.WriteString(*resumeText)
		sb.WriteString("\n---\n")
		sb.WriteString(correctionsText)
		sb.WriteString("\n\nIMPORTANT: When improving or rewriting this resume, you MUST use ONLY the facts from this original resume and any user corrections above. Do not invent or change any names, dates, companies, schools, job titles, or other factual information.")

		out = append(out,
			llm.Message{Role: string(domain.RoleUser), Content: sb.String()},
			llm.Message{Role: string(domain.RoleAssistant), Content: resumeAcknowledgement},
		)
	}

	for _, m := range history {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}

	return append(out, llm.Message{Role: string(domain.RoleUser), Content: message})
}

// ImprovementMessages pide sugerencias orientadas a un rol (y empresa, si se indica).
func (PromptBuilder) ImprovementMessages(resumeText, targetRole, targetCompany string) []llm.Message {
	companyContext := ""
	if targetCompany != "" {
		companyContext = " at " + targetCompany
	}

	var sb strings.Builder
	sb.WriteString("Based on this resume:\n\n")
	sb.WriteString("---\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n---\n\n")
	sb.WriteString(fmt.Sprintf("I'm targeting a %s position%s.\n\n", targetRole, companyContext))
	sb.WriteString("Please provide:\n")
	sb.WriteString("1. How well does my current resume match this target? (1-10)\n")
	sb.WriteString("2. 5 specific changes I should make to better align with this role\n")
	sb.WriteString("3. Keywords I should add\n")
	sb.WriteString("4. Experiences I should emphasize more\n")
	sb.WriteString("5. Anything I should remove or de-emphasize\n")
	sb.WriteString("6. A rewritten version of my most impactful bullet point tailored to this role")

	return []llm.Message{{Role: string(domain.RoleUser), Content: sb.String()}}
}

// RewriteMessages pide reescribir una seccion suelta.
func (PromptBuilder) RewriteMessages(sectionText, sectionType, extraContext string) []llm.Message {
	contextLine := ""
	if extraContext != "" {
		contextLine = "Additional context: " + extraContext
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Please rewrite this %s section to be more impactful:\n\n", sectionType))
	sb.WriteString("Current version:\n")
	sb.WriteString("---\n")
	sb.WriteString(sectionText)
	sb.WriteString("\n---\n\n")
	sb.WriteString(contextLine)
	sb.WriteString("\n\n")
	sb.WriteString("Provide:\n")
	sb.WriteString("1. Rewritten version with improvements\n")
	sb.WriteString("2. Brief explanation of what you changed and why\n")
	sb.WriteString("3. The key principles applied")

	return []llm.Message{{Role: string(domain.RoleUser), Content: sb.String()}}
}
