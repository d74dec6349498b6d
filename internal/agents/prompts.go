package agents

import "fmt"

const analystSystemPrompt = `You are a disciplined value-investing research analyst in the
Graham/Buffett tradition. You evaluate businesses on durable competitive advantage,
owner earnings, return on invested capital and margin of safety.

Rules:
- Use the calculator tool for every valuation number. Never do valuation arithmetic in prose.
- Cite which tool data supports each quantitative claim.
- Be decisive. Hedged conclusions are worthless for screening.
- End your final answer with exactly these marker lines:
**DECISION: <verdict>**
**CONVICTION: HIGH|MODERATE|LOW**`

func quickScreenPrompt(ticker string) string {
	return fmt.Sprintf(`Run a first-pass value screen on %s.

1. Fetch the company profile and 10 years of key metrics.
2. Use the calculator to compute owner earnings and a conservative DCF
   (growth capped at historical revenue growth, 10%% discount rate, 2.5%% terminal growth).
3. Compute the margin of safety against the current price and state it explicitly
   as "margin of safety of X%%".
4. Judge the durability of the business model in two or three sentences.

Verdict vocabulary: INVESTIGATE (quality business worth a full deep dive),
PASS (poor economics, untrustworthy numbers, or no plausible discount).`, ticker)
}

func shariaScreenPrompt(ticker string) string {
	return fmt.Sprintf(`Screen %s for Sharia compliance.

1. Fetch the company profile, latest balance sheet and income statement.
2. Identify revenue from non-compliant activities (alcohol, gambling, conventional
   financial services, tobacco, pork, adult entertainment).
3. Run the calculator sharia_check with market cap, total debt, cash and
   interest-bearing securities, receivables, total revenue and non-compliant revenue.
4. Report each ratio against its limit.

Verdict vocabulary: COMPLIANT, DOUBTFUL (any ratio close to its limit or revenue
classification uncertain), NON_COMPLIANT.`, ticker)
}

func currentYearPrompt(ticker string, year int) string {
	return fmt.Sprintf(`Analyze the fiscal %d annual report of %s in depth.

1. Fetch the full 10-K for fiscal %d with fetch_filing.
2. Assess: revenue quality and drivers, margin trajectory, capital allocation,
   balance-sheet risk, management candor, competitive position.
3. Fetch key metrics and use the calculator for owner earnings, ROIC and a DCF.
   State the margin of safety explicitly as "margin of safety of X%%".
4. Search the web for material recent developments not in the filing.

Verdict vocabulary: BUY, WATCH, AVOID.`, year, ticker, year)
}

func priorYearPrompt(ticker string, year int, mda string) string {
	return fmt.Sprintf(`Below is the Management's Discussion & Analysis section of the
fiscal %d 10-K of %s. Summarize what management said versus what the numbers showed:
strategy shifts, guidance accuracy, recurring excuses, capital allocation decisions.
Keep it under 400 words. Do not emit a decision marker.

--- MD&A %d ---
%s`, year, ticker, year, mda)
}

func proxyPrompt(ticker string, content string) string {
	return fmt.Sprintf(`Below is the latest proxy statement (DEF 14A) of %s. Assess
incentive alignment: how executives are paid, which metrics drive bonuses, insider
ownership, and any related-party concerns. Keep it under 300 words. Do not emit a
decision marker.

--- DEF 14A ---
%s`, ticker, content)
}

func summarizationPrompt(ticker string, year int, content string) string {
	return fmt.Sprintf(`The fiscal %d filing of %s below is too large to carry through
the analysis in full. Produce a comprehensive standalone summary that preserves every
materially useful fact: segment figures, margin commentary, risk factors with teeth,
debt schedule, management outlook. Losing a material fact is worse than being long.

--- FILING ---
%s`, year, ticker, content)
}

func synthesisPrompt(ticker string, currentYearThesis string, priorSummaries []string, proxySummary string) string {
	out := fmt.Sprintf(`Synthesize a final investment thesis for %s from the multi-year
record below. Weigh trajectory over snapshots: is the business getting stronger or
weaker, and is management telling a consistent story?

--- CURRENT YEAR ANALYSIS ---
%s
`, ticker, currentYearThesis)

	for i, s := range priorSummaries {
		out += fmt.Sprintf("\n--- PRIOR YEAR %d ---\n%s\n", i+1, s)
	}
	if proxySummary != "" {
		out += "\n--- GOVERNANCE / INCENTIVES ---\n" + proxySummary + "\n"
	}

	out += `
State the margin of safety explicitly as "margin of safety of X%".
Verdict vocabulary: BUY, WATCH, AVOID.`
	return out
}
