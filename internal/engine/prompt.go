package engine

// LLM prompt templates: data only, no logic.

// videoSummaryPrompt asks for a short bullet summary of one video.
// Args: title, channel, published (RFC 3339), description, link, transcript section, language clause.
const videoSummaryPrompt = `You are a helpful assistant that summarises YouTube videos for busy viewers.
Provide a concise summary highlighting the key points, action items, and notable quotes if relevant.
If no transcript is given, rely on the title, description and general world knowledge.

Video title: %s
Channel: %s
Published at: %s
Description: %s
Link: %s
%s
Summarise the video in 3-5 bullet points, one per line, each starting with "- ".
When a point comes from the transcript, end it with the matching timestamp link exactly as it appears in the transcript, e.g. [83s](https://www.youtube.com/watch?v=ID&t=83s).
Do not add headings, preambles or closing remarks.%s`

// transcriptSection wraps the timestamped transcript inside videoSummaryPrompt.
// Args: transcript lines.
const transcriptSection = `
Transcript (each line starts with a timestamp link):
%s
`

// noDescription stands in for an empty video description.
const noDescription = "No description provided."
