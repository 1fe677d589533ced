package services

const unmatchedPaymentEmailHTML = `<!DOCTYPE html>
<html>
<head>
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #1f2937; background-color: #f0fdf4; margin: 0; padding: 20px; }
.container { padding: 20px; max-width: 600px; margin: 20px auto; background-color: #ffffff; border: 1px solid #bbf7d0; border-radius: 8px; }
.header { font-size: 22px; font-weight: bold; color: #15803d; margin-bottom: 15px; }
table { border-collapse: collapse; width: 100%%; }
td { padding: 6px 8px; border-bottom: 1px solid #e5e7eb; }
td.label { color: #6b7280; width: 40%%; }
pre { white-space: pre-wrap; background-color: #f3f4f6; padding: 12px; border-radius: 5px; font-size: 12px; }
.footer { margin-top: 20px; font-size: 12px; color: #6b7280; text-align: center; }
</style>
</head>
<body>
  <div class="container">
    <div class="header">Unmatched M-Pesa payment</div>
    <p>No tenant could be matched to the payment below. It is waiting in the review queue.</p>
    <table>
      <tr><td class="label">Transaction</td><td>%s</td></tr>
      <tr><td class="label">Amount</td><td>%s</td></tr>
      <tr><td class="label">Sender</td><td>%s (%s)</td></tr>
      <tr><td class="label">Account number</td><td>%s</td></tr>
      <tr><td class="label">Received</td><td>%s</td></tr>
    </table>
    <pre>%s</pre>
    <div class="footer">
      © %d %s. All rights reserved.
    </div>
  </div>
</body>
</html>`
