// Package summarizer provides the text summarizers used by the gateway.
//
// Implementations:
//
//   - MockSummarizer keeps the leading sentences of the text. It needs no
//     credentials and is the default when Azure OpenAI is not configured.
//   - AzureClient calls an Azure OpenAI chat completions deployment.
//   - RemoteSummarizer calls the summarize_text tool of an upstream
//     summarization server through an mcp.Client.
//
// The mock and Azure summarizers check the access key against an
// access.AllowList first. An unknown key is not an error: it yields a result
// with success=false and the message "Invalid access key", matching what the
// upstream server reports.
package summarizer
