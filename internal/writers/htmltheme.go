package writers

// theme holds the palette interpolated into the embedded stylesheet.
type theme struct {
	Name            string
	Background      string
	Text            string
	TextMuted       string
	Link            string
	Border          string
	ChatBackground  string
	SpoilerHidden   string
	QuoteBorder     string
	CodeBackground  string
	MentionColor    string
	ReactionBack    string
}

var themeDark = theme{
	Name:           "dark",
	Background:     "#36393e",
	Text:           "#dcddde",
	TextMuted:      "#a3a6aa",
	Link:           "#00aff4",
	Border:         "rgba(255,255,255,0.1)",
	ChatBackground: "#36393e",
	SpoilerHidden:  "#202225",
	QuoteBorder:    "#4f545c",
	CodeBackground: "#2f3136",
	MentionColor:   "#7289da",
	ReactionBack:   "rgba(255,255,255,0.05)",
}

var themeLight = theme{
	Name:           "light",
	Background:     "#ffffff",
	Text:           "#23262a",
	TextMuted:      "#5f6772",
	Link:           "#0068e0",
	Border:         "rgba(0,0,0,0.1)",
	ChatBackground: "#ffffff",
	SpoilerHidden:  "#b9bbbe",
	QuoteBorder:    "#c7ccd1",
	CodeBackground: "#f2f3f5",
	MentionColor:   "#687dc6",
	ReactionBack:   "rgba(0,0,0,0.05)",
}

// htmlStylesheet is the embedded CSS; %s slots are filled from the theme
// in palette order.
const htmlStylesheet = `
body {
  margin: 0;
  padding: 0;
  background-color: %[1]s;
  color: %[2]s;
  font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
  font-size: 17px;
}
a { color: %[4]s; text-decoration: none; }
a:hover { text-decoration: underline; }
img { object-fit: contain; image-rendering: high-quality; }
.preamble {
  display: grid;
  grid-template-columns: auto 1fr;
  max-width: 100%%;
  padding: 1rem;
  border-bottom: 1px solid %[5]s;
}
.preamble__guild-icon-container { grid-row: 1 / 3; }
.preamble__guild-icon { max-width: 88px; max-height: 88px; border-radius: 50%%; }
.preamble__entries-container { margin-left: 1rem; }
.preamble__entry { font-size: 1.4rem; }
.preamble__entry--small { font-size: 1rem; color: %[3]s; }
.chatlog { max-width: 100%%; padding: 1rem 0; }
.chatlog__message-group {
  display: grid;
  grid-template-columns: auto 1fr;
  margin: 0 0.6rem;
  padding: 0.9rem 0;
  border-top: 1px solid %[5]s;
}
.chatlog__message-aside { grid-row: 1 / 99999; width: 44px; padding: 0.1rem 0.6rem 0 0; }
.chatlog__avatar { width: 40px; height: 40px; border-radius: 50%%; }
.chatlog__header { margin-bottom: 0.1rem; }
.chatlog__author { font-weight: 500; }
.chatlog__timestamp { margin-left: 0.3rem; font-size: 0.75rem; color: %[3]s; }
.chatlog__content { padding-right: 1rem; word-wrap: break-word; line-height: 1.375; }
.chatlog__edited-timestamp { margin-left: 0.15rem; font-size: 0.8rem; color: %[3]s; }
.chatlog__reference {
  display: flex;
  margin-bottom: 0.15rem;
  align-items: center;
  font-size: 0.85rem;
  color: %[3]s;
}
.chatlog__reference-avatar { width: 16px; height: 16px; margin-right: 0.25rem; border-radius: 50%%; }
.chatlog__reference-content { overflow: hidden; white-space: nowrap; text-overflow: ellipsis; cursor: pointer; }
.chatlog__system-notification-content { color: %[3]s; }
.chatlog__attachment { margin: 0.3rem 0; }
.chatlog__attachment-media { max-width: 45vw; max-height: 500px; border-radius: 3px; }
.chatlog__attachment-generic {
  display: inline-block;
  padding: 0.6rem;
  background-color: %[9]s;
  border-radius: 3px;
}
.chatlog__embed { display: flex; margin-top: 0.3rem; max-width: 520px; }
.chatlog__embed-color-pill { flex-shrink: 0; width: 4px; border-radius: 3px 0 0 3px; }
.chatlog__embed-content-container {
  padding: 0.5rem 0.6rem;
  background-color: %[9]s;
  border-radius: 0 3px 3px 0;
}
.chatlog__embed-author { font-size: 0.875rem; font-weight: 600; }
.chatlog__embed-title { margin-top: 0.2rem; font-size: 0.875rem; font-weight: 600; }
.chatlog__embed-description { margin-top: 0.2rem; font-size: 0.85rem; }
.chatlog__embed-field { margin-top: 0.35rem; font-size: 0.875rem; }
.chatlog__embed-field--inline { display: inline-block; margin-right: 1rem; }
.chatlog__embed-field-name { font-weight: 600; }
.chatlog__embed-image { max-width: 500px; max-height: 400px; margin-top: 0.4rem; border-radius: 3px; }
.chatlog__embed-footer { margin-top: 0.4rem; font-size: 0.75rem; color: %[3]s; }
.chatlog__sticker { width: 160px; height: 160px; margin-top: 0.3rem; }
.chatlog__reactions { display: flex; margin-top: 0.35rem; }
.chatlog__reaction {
  display: flex;
  align-items: center;
  margin-right: 0.25rem;
  padding: 0.125rem 0.375rem;
  background-color: %[10]s;
  border-radius: 8px;
}
.chatlog__reaction-count { margin-left: 0.35rem; font-size: 0.875rem; }
.chatlog__emoji { width: 1.325rem; height: 1.325rem; vertical-align: -0.4rem; }
.chatlog__emoji--large { width: 2.8rem; height: 2.8rem; }
.chatlog__markdown-mention {
  padding: 0 2px;
  border-radius: 3px;
  color: %[8]s;
  background-color: %[10]s;
  font-weight: 500;
}
.chatlog__markdown-timestamp { color: %[3]s; }
.chatlog__markdown-spoiler--hidden { cursor: pointer; background-color: %[6]s; color: transparent; border-radius: 3px; }
.chatlog__markdown-spoiler--hidden::selection { color: transparent; }
.chatlog__markdown-quote { display: flex; margin: 0.1rem 0; }
.chatlog__markdown-quote-border { margin-right: 0.5rem; width: 4px; border-radius: 3px; background-color: %[7]s; }
.chatlog__markdown-pre { font-family: "Consolas", "Courier New", monospace; background-color: %[9]s; }
.chatlog__markdown-pre--inline { padding: 2px; border-radius: 3px; font-size: 0.85rem; }
.chatlog__markdown-pre--multiline {
  margin-top: 0.25rem;
  padding: 0.5rem;
  border: 1px solid %[5]s;
  border-radius: 5px;
  font-size: 0.875rem;
}
.postamble { padding: 1.2rem 0.9rem; border-top: 1px solid %[5]s; color: %[3]s; }
`

// htmlScripts are the interaction hooks referenced by rendered markup.
const htmlScripts = `
function showSpoiler(event, element) {
  if (element && element.classList.contains("chatlog__markdown-spoiler--hidden")) {
    event.preventDefault();
    element.classList.remove("chatlog__markdown-spoiler--hidden");
  }
}
function scrollToMessage(event, id) {
  var element = document.getElementById("chatlog__message-container-" + id);
  if (!element) return;
  event.preventDefault();
  element.classList.add("chatlog__message-container--highlighted");
  window.scrollTo({ top: element.getBoundingClientRect().top - document.body.getBoundingClientRect().top - 200, behavior: "smooth" });
  window.setTimeout(function () {
    element.classList.remove("chatlog__message-container--highlighted");
  }, 2000);
}
`
