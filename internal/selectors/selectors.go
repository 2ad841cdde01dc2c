// File: internal/selectors/selectors.go
//
// Package selectors is the locator table for the publishing console. Every
// CSS or XPath string the procedures use lives here so UI drift is fixed in
// one place.
package selectors

import (
	"fmt"
	"strings"
)

// URLs.
const (
	UploadURL          = "https://www.youtube.com/upload?persist_gl=1&gl=US&persist_hl=1&hl=en"
	HomeURL            = "https://www.youtube.com/?persist_gl=1&gl=US&persist_hl=1&hl=en"
	ChannelSwitcherURL = "https://www.youtube.com/channel_switcher"

	VideoBaseLink = "https://youtu.be"
	ShortBaseLink = "https://youtube.com/shorts"
)

// Login.
const (
	Avatar              = "button#avatar-btn"
	SelectedLoginLocale = `[aria-selected="true"]`
	EnglishLoginLocale  = `[role="presentation"]:not([aria-hidden="true"])>[data-value="en-GB"]`
	EmailInput          = `input[type="email"]`
	DeviceApprovalCode  = "samp"
	PasswordInput       = `input[type="password"]:not([aria-hidden="true"])`
	SMSPinInput         = "#idvPin"
	CaptchaInput        = `input[aria-label="Type the text you hear or see"]`
	CreateChannelButton = "#create-channel-button"
	UploadsDialog       = "ytcp-uploads-dialog"
	ConfirmRecovery     = "//*[normalize-space(text())='Confirm your recovery email']"
	EnterRecovery       = "//*[normalize-space(text())='Enter recovery email address']"

	HomeLanguageMenuItem = "#sections>yt-multi-page-menu-section-renderer:nth-child(3)>#items>ytd-compact-link-renderer:nth-of-type(2)>a"
	EnglishUKItem        = "//*[normalize-space(text())='English (UK)']"
)

// Upload composer.
const (
	CreateIcon        = `//*[@id="create-icon"]/tp-yt-iron-icon`
	UploadVideosItem  = `//*[@id="text-item-0"]/ytcp-ve/div/div/yt-formatted-string`
	SelectFilesButton = "//*[normalize-space(text())='Select files']"
	CloseButton       = "//*[normalize-space(text())='Close']"
	SaveAndClose      = `//*[@aria-label="Save and close"]/tp-yt-iron-icon`
	ProgressLabel     = "span.progress-label.ytcp-video-upload-progress"
	UploadErrorArea   = ".error-area.style-scope.ytcp-uploads-dialog"
	UploadComplete    = `//ytcp-video-upload-progress/span[contains(@class,"progress-label") and contains(text(),"Upload complete")]`
	DailyLimitReached = `//div[contains(text(),"Daily upload limit reached")]`
	ProcessingBanner  = `//*[contains(text(),"Video upload complete")]`
)

// Shared metadata form.
const (
	TitleBox       = `(//*[@id="textbox"])[1]`
	DescriptionBox = `(//*[@id="textbox"])[2]`
	Textboxes      = `//*[@id="textbox"]`

	MadeForKids    = "tp-yt-paper-radio-button[name='VIDEO_MADE_FOR_KIDS_MFK']"
	NotMadeForKids = "tp-yt-paper-radio-button[name='VIDEO_MADE_FOR_KIDS_NOT_MFK']"
	AgeRestricted  = "tp-yt-paper-radio-button[name='VIDEO_AGE_RESTRICTION_SELF']"

	UploadPlaylistDropdown = "//*[normalize-space(text())='Select']"
	EditPlaylistDropdown   = `//*[@id="basics"]//ytcp-video-metadata-playlists/ytcp-text-dropdown-trigger/ytcp-dropdown-trigger`
	PlaylistSearch         = "#search-input"
	NewPlaylist            = "//*[normalize-space(text())='New playlist'] | //*[normalize-space(text())='Create playlist']"
	CreateButtons          = "//*[normalize-space(text())='Create']"
	DoneButton             = "//*[normalize-space(text())='Done']"

	ShowMoreToggle   = "#toggle-button"
	AdvancedSection  = "ytcp-video-metadata-editor-advanced"
	TagsInput        = `[aria-label="Tags"]`
	ClearTags        = `//*[@id="clear-button"]/tp-yt-iron-icon`
	NotifyToggle     = "#notify-subscribers > div:nth-child(1) > div:nth-child(1)"
	LanguageDropdown = "//*[normalize-space(text())='Video language']"

	CategoryContainer = "#category-container"
	CategoryDropdown  = "#category-container #category > ytcp-select > ytcp-text-dropdown-trigger"
	GamingCategory    = "[test-id='CREATOR_VIDEO_CATEGORY_GADGETS']"
	GameTitleInput    = "#category-container .ytcp-form-gaming input"
	GameResults       = "#search-results > tp-yt-paper-dialog:not([aria-hidden='true']) .selectable-item"

	NextButton    = "//*[normalize-space(text())='Next']/parent::*[not(@disabled)]"
	PublishButton = "//*[normalize-space(text())='Publish']/parent::*[not(@disabled)] | //*[normalize-space(text())='Save']/parent::*[not(@disabled)]"
	ShareLink     = `[href^="https://youtu.be"], [href^="https://youtube.com/shorts"]`
)

// Monetization.
const (
	MonetizationInput     = "#child-input ytcp-video-monetization"
	MonetizationOnRadio   = "ytcp-video-monetization-edit-dialog.cancel-button-hidden .ytcp-video-monetization-edit-dialog #radioContainer #onRadio"
	MonetizationSave      = "ytcp-video-monetization-edit-dialog.cancel-button-hidden .ytcp-video-monetization-edit-dialog #save-button"
	SelfCertCheckbox      = ".ytpp-self-certification-questionnaire .ytpp-self-certification-questionnaire #checkbox-container"
	SelfCertSubmit        = ".ytpp-self-certification-questionnaire .ytpp-self-certification-questionnaire #submit-questionnaire-button"
	MonetizationSecondary = "#dialog-buttons #secondary-action-button"
)

// Edit page.
const (
	EditEntry         = `//*[@id="subscribe-button"]/ytd-button-renderer`
	ThumbnailUploader = `[class="remove-default-style style-scope ytcp-thumbnails-compact-editor-uploader"]`
	PreviousStill     = "#still-1 > button"
	EditSave          = "#save > div"
	SaveDisabled      = "//*[normalize-space(text())='Save']/parent::*[@disabled]"
	VisibilityContent = "#content"
	PremiereCheckbox  = "#enable-premiere-checkbox"
	VisibilitySave    = "#save-button"
	ThumbnailLabel    = "upload thumbnail"
)

// Comments.
const (
	CommentsButton    = `//*[@id="comments-button"]`
	CommentInput      = "#placeholder-area"
	CommentSubmit     = "#submit-button"
	CommentList       = `//ytd-comments[@id="comments"]//ytd-item-section-renderer[@section-identifier="comment-item-section"]/div[@id="contents"]`
	CommentActionMenu = `(//ytd-comments[@id="comments"]//ytd-item-section-renderer[@section-identifier="comment-item-section"]/div[@id="contents"]/*[1]//div[@id="action-menu"]/ytd-menu-renderer/yt-icon-button)[1]`
	PinMenuItem       = `//tp-yt-paper-item//*[text()="Pin"]/ancestor::tp-yt-paper-item`
	PinConfirm        = "#confirm-button>yt-button-shape>button"
	LiveChatLabel     = "#label"
	LiveChatInput     = "#input"
)

// Coordinates of the live chat input and send button inside the default viewport.
const (
	LiveChatInputX = 450
	LiveChatInputY = 480
	LiveChatSendX  = 841
	LiveChatSendY  = 495
)

// ExactText matches any element whose normalized text equals text.
func ExactText(text string) string {
	return "//*[normalize-space(text())=" + Literal(text) + "]"
}

// PrivacyRadio is the visibility radio for a Visibility radio name.
func PrivacyRadio(name string) string {
	return fmt.Sprintf(`#privacy-radios *[name="%s"]`, name)
}

// LanguageOption matches a language entry case-insensitively.
func LanguageOption(language string) string {
	return `//*[normalize-space(translate(text(),"ABCDEFGHIJKLMNOPQRSTUVWXYZ","abcdefghijklmnopqrstuvwxyz"))=` +
		Literal(strings.ToLower(language)) + "]"
}

// ContainsTextFold matches elements whose text contains text, ignoring case.
func ContainsTextFold(text string) string {
	lower := strings.ToLower(strings.Join(strings.Fields(text), " "))
	return `//*[contains(translate(normalize-space(text()),"ABCDEFGHIJKLMNOPQRSTUVWXYZ","abcdefghijklmnopqrstuvwxyz"),` +
		Literal(lower) + ")]"
}

// Literal quotes s as an XPath string literal. XPath 1.0 has no escapes, so
// values holding both quote kinds become a concat() of the pieces.
func Literal(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	var parts []string
	for i, piece := range strings.Split(s, `"`) {
		if i > 0 {
			parts = append(parts, `'"'`)
		}
		if piece != "" {
			parts = append(parts, `"`+piece+`"`)
		}
	}
	return "concat(" + strings.Join(parts, ",") + ")"
}
