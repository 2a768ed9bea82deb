package service

import "fmt"

// niceEmail wraps a fragment of HTML in the house outbound-mail frame.
func niceEmail(text string) string {
	return fmt.Sprintf(`
	<div class="email" style="
		border: 1px solid black;
		padding: 20px;
		font-family: sans-serif;
		line-height: 2;
		font-size: 20px;
	">
		<h2>Hello There!</h2>
		<p>%s</p>
		<p>Cheers, the Storefront team</p>
	</div>
	`, text)
}
